// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	PresetNotFoundId Id = iota + 1
	ImageConfigNotFoundId
	ImageConfigInvalidId
	UpstreamUnavailableId
	EngineUnavailableId
	BuildFailedId
	OutputDirInvalidId
	ConfigLoadFailedId
	PermissionDeniedId
)

const projectDocs HttpLink = "https://github.com/turlucode/turludock#readme"

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to look the issue up
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // project documentation
		extLinks []HttpLink  // third-party pages that might help
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown is the page source including the "See also" links.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	links := append(slices.Clone(i.docLinks), i.extLinks...)
	if len(links) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range links {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

// Render renders the page with a glamour style such as "dark" or "light".
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	presetNotFoundIssue = &Issue{
		id: PresetNotFoundId,
		mdMsg: `
# Unknown pre-configuration!

The name given to '-e' is not one of the embedded pre-configurations.

## Things you can try:
- List the available pre-configurations:
~~~
$ turludock which presets
~~~

- Check the "did you mean" suggestions above for typos
- Use your own configuration file instead:
~~~
$ turludock build -c my_robot.yaml
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	imageConfigNotFoundIssue = &Issue{
		id: ImageConfigNotFoundId,
		mdMsg: `
# Image configuration not found!

The file given to '-c' could not be read.

## Things you can try:
- Check the path for typos
- Create a configuration interactively:
~~~
$ turludock init my_robot.yaml
~~~

- Supported formats are '.yaml', '.yml', '.toml' and '.cue'`,
		docLinks: []HttpLink{projectDocs},
	}

	imageConfigInvalidIssue = &Issue{
		id: ImageConfigInvalidId,
		mdMsg: `
# Invalid image configuration!

The configuration was read but does not describe an image turludock can build.

## A valid configuration looks like:
~~~yaml
ros_version: humble
gpu_driver: nvidia
cuda_version: 12.4.1
cudnn_version: 9.1.0
extra_packages:
  - tmux
  - llvm: 18
~~~

## Things you can try:
- Check which ROS distributions are supported:
~~~
$ turludock which ros
~~~

- Check which CUDA and cuDNN versions fit your ROS distribution:
~~~
$ turludock which cuda humble
~~~

- Start from a pre-configuration:
~~~
$ turludock which presets
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	upstreamUnavailableIssue = &Issue{
		id: UpstreamUnavailableId,
		mdMsg: `
# Could not reach an upstream server!

Pinned and latest package versions are checked against GitHub and apt.llvm.org.

## Things you can try:
- Check your network connection and proxy settings
- If GitHub rate-limits you, provide a token:
~~~
$ export GITHUB_TOKEN=ghp_...
~~~

- Work without network access, using the offline versions from your settings:
~~~
$ turludock --offline generate -e humble_nvidia ./out
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	engineUnavailableIssue = &Issue{
		id: EngineUnavailableId,
		mdMsg: `
# Container engine not available!

turludock talks to Docker or Podman through the Docker Engine API and could
not reach the daemon.

## Things you can try:
- Start the daemon:
~~~
$ sudo systemctl start docker
~~~

- For Podman, enable the API socket:
~~~
$ systemctl --user enable --now podman.socket
~~~

- Point turludock at a specific daemon in your settings:
~~~cue
container_engine: "podman"
docker_host:      "unix:///run/user/1000/podman/podman.sock"
~~~

- Generate the build folder only and build it yourself:
~~~
$ turludock generate -e humble_nvidia ./out
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/", "https://podman.io/docs/installation"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Image build failed!

The container engine reported an error while building the image.

## Things you can try:
- Re-run with the full build output:
~~~
$ turludock build -e humble_nvidia -v
~~~

- Retry without cache when a package mirror changed:
~~~
$ turludock build -e humble_nvidia --no-cache
~~~

- Generate the folder and inspect the Dockerfile:
~~~
$ turludock generate -e humble_nvidia ./out
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	outputDirInvalidIssue = &Issue{
		id: OutputDirInvalidId,
		mdMsg: `
# Output folder cannot be used!

'generate' writes into an existing directory you can write to.

## Things you can try:
- Create the directory first:
~~~
$ mkdir -p ./out && turludock generate -e humble_nvidia ./out
~~~

- Check the directory permissions`,
		docLinks: []HttpLink{projectDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the turludock settings!

The settings file exists but could not be parsed or validated.

## Things you can try:
- Show where the file is:
~~~
$ turludock config path
~~~

- Compare it with the defaults:
~~~
$ turludock config dump
~~~

- Recreate it:
~~~
$ turludock config init
~~~`,
		docLinks: []HttpLink{projectDocs},
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- Writing into a protected directory
- The container engine socket requires elevated permissions

## Things you can try:
- Check file and directory permissions
- For Docker, join the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~

- Use rootless Podman`,
		docLinks: []HttpLink{projectDocs},
	}

	issues = map[Id]*Issue{
		presetNotFoundIssue.Id():      presetNotFoundIssue,
		imageConfigNotFoundIssue.Id(): imageConfigNotFoundIssue,
		imageConfigInvalidIssue.Id():  imageConfigInvalidIssue,
		upstreamUnavailableIssue.Id(): upstreamUnavailableIssue,
		engineUnavailableIssue.Id():   engineUnavailableIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		outputDirInvalidIssue.Id():    outputDirInvalidIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id - b.id) })
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

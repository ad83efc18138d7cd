// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"
)

// RemoteTags lists the tag names advertised by a git remote. Nothing is
// cloned; only the ref advertisement is read.
func RemoteTags(ctx context.Context, url string) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing refs of %s: %w", url, err)
	}

	var tags []string
	for _, ref := range refs {
		if ref.Name().IsTag() {
			tags = append(tags, ref.Name().Short())
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}

// RemoteTagExists reports whether url advertises refs/tags/<tag>.
func RemoteTagExists(ctx context.Context, url, tag string) (bool, error) {
	tags, err := RemoteTags(ctx, url)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(tags, tag)
	return found, nil
}

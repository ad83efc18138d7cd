// SPDX-License-Identifier: MPL-2.0

package compat

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedDistro is the sentinel wrapped by UnsupportedDistroError.
var ErrUnsupportedDistro = errors.New("unsupported ROS distribution")

type (
	// UbuntuVersion is an Ubuntu release number such as 22.04.
	// Releases are compared numerically, so 24.04 > 23.10 > 22.04.
	UbuntuVersion struct {
		Major int
		Minor int
	}

	// Distro describes a supported ROS distribution.
	Distro struct {
		// Codename is the lower-case distribution name, e.g. "humble".
		Codename string
		// Major is the ROS major version (1 or 2).
		Major int
		// Ubuntu is the Ubuntu release the distribution targets.
		Ubuntu UbuntuVersion
		// Released is the distribution release date.
		Released time.Time
	}

	// UnsupportedDistroError is returned for codenames missing from the ROS table.
	UnsupportedDistroError struct {
		Codename  string
		Supported []string
	}
)

// Reference Ubuntu releases used by the composer's base image rules.
var (
	Ubuntu1604 = UbuntuVersion{Major: 16, Minor: 4}
	Ubuntu2004 = UbuntuVersion{Major: 20, Minor: 4}
	Ubuntu2204 = UbuntuVersion{Major: 22, Minor: 4}
	Ubuntu2304 = UbuntuVersion{Major: 23, Minor: 4}
	Ubuntu2404 = UbuntuVersion{Major: 24, Minor: 4}
)

// distros is ordered by release date.
var distros = []Distro{
	{Codename: "noetic", Major: 1, Ubuntu: Ubuntu2004, Released: time.Unix(1590264000, 0).UTC()},
	{Codename: "humble", Major: 2, Ubuntu: Ubuntu2204, Released: time.Unix(1653336000, 0).UTC()},
	{Codename: "iron", Major: 2, Ubuntu: Ubuntu2204, Released: time.Unix(1684872000, 0).UTC()},
	{Codename: "jazzy", Major: 2, Ubuntu: Ubuntu2404, Released: time.Unix(1716494400, 0).UTC()},
}

// Error implements the error interface.
func (e *UnsupportedDistroError) Error() string {
	return fmt.Sprintf("ROS version '%s' not supported. Supported are %v", e.Codename, e.Supported)
}

// Unwrap returns ErrUnsupportedDistro for errors.Is() compatibility.
func (e *UnsupportedDistroError) Unwrap() error { return ErrUnsupportedDistro }

// String returns the semantic form, e.g. "22.04".
func (u UbuntuVersion) String() string {
	return fmt.Sprintf("%d.%02d", u.Major, u.Minor)
}

// Flat returns the form NVIDIA uses in repository paths, e.g. "ubuntu2204".
func (u UbuntuVersion) Flat() string {
	return fmt.Sprintf("ubuntu%d%02d", u.Major, u.Minor)
}

// Compare returns -1, 0 or +1 depending on whether u is older than, equal to
// or newer than other.
func (u UbuntuVersion) Compare(other UbuntuVersion) int {
	if c := cmpInt(u.Major, other.Major); c != 0 {
		return c
	}
	return cmpInt(u.Minor, other.Minor)
}

// Before reports whether u is an older release than other.
func (u UbuntuVersion) Before(other UbuntuVersion) bool { return u.Compare(other) < 0 }

// After reports whether u is a newer release than other.
func (u UbuntuVersion) After(other UbuntuVersion) bool { return u.Compare(other) > 0 }

// ParseUbuntuVersion parses "22.04" style release numbers.
func ParseUbuntuVersion(s string) (UbuntuVersion, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return UbuntuVersion{}, fmt.Errorf("invalid Ubuntu version %q: expected MAJOR.MINOR", s)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return UbuntuVersion{}, fmt.Errorf("invalid Ubuntu version %q: %w", s, err)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return UbuntuVersion{}, fmt.Errorf("invalid Ubuntu version %q: %w", s, err)
	}
	return UbuntuVersion{Major: major, Minor: minor}, nil
}

// Title returns the human-readable name, e.g. "ROS 2 Humble".
func (d Distro) Title() string {
	return fmt.Sprintf("ROS %d %s", d.Major, capitalize(d.Codename))
}

// Lookup returns the distribution for a codename.
func Lookup(codename string) (Distro, error) {
	for _, d := range distros {
		if d.Codename == codename {
			return d, nil
		}
	}
	return Distro{}, &UnsupportedDistroError{Codename: codename, Supported: Codenames()}
}

// IsSupported reports whether codename is in the ROS table.
func IsSupported(codename string) bool {
	_, err := Lookup(codename)
	return err == nil
}

// Distros returns all supported distributions ordered by release date.
func Distros() []Distro {
	return slices.Clone(distros)
}

// Codenames returns all supported codenames ordered by release date.
func Codenames() []string {
	names := make([]string, 0, len(distros))
	for _, d := range distros {
		names = append(names, d.Codename)
	}
	return names
}

// CodenamesByMajor returns the codenames of one ROS major version.
func CodenamesByMajor(major int) []string {
	var names []string
	for _, d := range distros {
		if d.Major == major {
			names = append(names, d.Codename)
		}
	}
	return names
}

// CompareVersions compares dotted numeric versions such as "12.4.1" and "12.6".
// Missing trailing components count as zero. Non-numeric components fall back
// to a lexical comparison of that component.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := range max(len(as), len(bs)) {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		xi, xErr := strconv.Atoi(orZero(x))
		yi, yErr := strconv.Atoi(orZero(y))
		if xErr != nil || yErr != nil {
			if c := strings.Compare(x, y); c != 0 {
				return c
			}
			continue
		}
		if c := cmpInt(xi, yi); c != 0 {
			return c
		}
	}
	return 0
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

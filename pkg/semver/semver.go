// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package semver validates, orders and derives prompt version numbers.
//
// A version number is exactly MAJOR.MINOR.PATCH: three non-negative decimal
// integers without leading zeros, prefix, suffix or surrounding whitespace.
package semver

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	xsemver "golang.org/x/mod/semver"
)

// Initial is the number given to the first version of a template.
const Initial = "1.0.0"

var (
	// ErrInvalid is returned for text that is not a version number.
	ErrInvalid = errors.New("invalid version number")

	// ErrExhausted is returned when the next number would overflow a
	// component.
	ErrExhausted = errors.New("version number space exhausted")
)

var pattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)

// Version represents a semantic version (MAJOR.MINOR.PATCH)
type Version struct {
	Major int
	Minor int
	Patch int
}

// IsValid reports whether text is a well-formed version number.
func IsValid(text string) bool {
	return pattern.MatchString(text)
}

// Parse parses a version number. It fails with ErrInvalid for malformed
// text and for components that overflow an int.
func Parse(text string) (Version, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, text)
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "MAJOR.MINOR.PATCH"
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// BumpMajor increments the major version and resets minor and patch to 0
func (v Version) BumpMajor() Version {
	return Version{Major: v.Major + 1}
}

// BumpMinor increments the minor version and resets patch to 0
func (v Version) BumpMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// BumpPatch increments the patch version
func (v Version) BumpPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// Compare returns:
//
//	-1 if v < other
//	 0 if v == other
//	 1 if v > other
//
// Components compare numerically, major first.
func (v Version) Compare(other Version) int {
	return xsemver.Compare("v"+v.String(), "v"+other.String())
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Max returns the greatest valid number in numbers. Malformed numbers are
// ignored; ok is false when none is valid.
func Max(numbers []string) (best Version, ok bool) {
	for _, n := range numbers {
		v, err := Parse(n)
		if err != nil {
			continue
		}
		if !ok || best.Less(v) {
			best, ok = v, true
		}
	}
	return best, ok
}

// Next derives the number following the greatest valid number in numbers:
// the minor component is bumped and patch reset. It returns Initial when
// numbers holds no valid number, and ErrExhausted when the minor component
// of the greatest number cannot be incremented.
func Next(numbers []string) (string, error) {
	best, ok := Max(numbers)
	if !ok {
		return Initial, nil
	}
	if best.Minor == math.MaxInt {
		return "", fmt.Errorf("%w: no minor version follows %s", ErrExhausted, best)
	}
	return best.BumpMinor().String(), nil
}

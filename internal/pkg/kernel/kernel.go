// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package kernel enumerates the kernels installed on a system and
// orders them by release version.
package kernel

import (
	"fmt"
	"strconv"
	"strings"
)

// Kernel is an installed kernel/initramfs/device-tree triple.
type Kernel struct {
	// Release is the kernel release string, empty for unversioned
	// installs (a bare vmlinuz).
	Release string

	// Kernel is the path to the kernel image.
	Kernel string
	// Initrd is the path to the initramfs, empty when absent.
	Initrd string
	// FdtDir is the path to the device-tree blob directory, empty when
	// absent.
	FdtDir string
}

func (k Kernel) String() string {
	if k.Release == "" {
		return k.Kernel
	}

	return fmt.Sprintf("%s (%s)", k.Release, k.Kernel)
}

// Description renders a human-readable name for a boot menu, using the
// OS name when known.
func (k Kernel) Description(osName string) string {
	switch {
	case osName == "" && k.Release == "":
		return "Linux"
	case osName == "":
		return fmt.Sprintf("Linux %s", k.Release)
	case k.Release == "":
		return fmt.Sprintf("%s, with Linux", osName)
	}

	return fmt.Sprintf("%s, with Linux %s", osName, k.Release)
}

// releasePart is one dot-separated component of a release string in
// comparable form.
type releasePart struct {
	// release is false for rc/trunk pre-release components, which sort
	// before everything else.
	release bool
	// num is the numeric value, -1 for non-numeric components.
	num int64
	raw string
}

// padPart stands in for missing components: 5.9 < 5.9.0, and 5.9.0
// beats 5.9.0-rc1 on the dash group the former lacks.
var padPart = releasePart{release: true, num: -1}

func comparePart(a, b releasePart) int {
	if a.release != b.release {
		if a.release {
			return 1
		}

		return -1
	}

	if a.num != b.num {
		if a.num < b.num {
			return -1
		}

		return 1
	}

	return strings.Compare(a.raw, b.raw)
}

// releaseParts splits a release on dashes, then dots:
// "5.10.0-4-amd64" becomes [[5 10 0] [4] [amd64]].
func releaseParts(release string) [][]releasePart {
	dashes := strings.Split(release, "-")
	result := make([][]releasePart, 0, len(dashes))

	for _, dash := range dashes {
		dots := strings.Split(dash, ".")
		parts := make([]releasePart, 0, len(dots))

		for _, dot := range dots {
			p := releasePart{
				release: !strings.HasPrefix(dot, "rc") && !strings.HasPrefix(dot, "trunk"),
				num:     -1,
				raw:     dot,
			}

			if n, err := strconv.ParseInt(dot, 10, 64); err == nil {
				p.num = n
			}

			parts = append(parts, p)
		}

		result = append(result, parts)
	}

	return result
}

// Compare totally orders kernels by release version, so that
// 5.10.0 > 5.9.0 > 5.9.0-rc2 > 5.9.0-rc1.
func Compare(a, b Kernel) int {
	as, bs := releaseParts(a.Release), releaseParts(b.Release)

	for i := 0; i < len(as) || i < len(bs); i++ {
		ap, bp := []releasePart{padPart}, []releasePart{padPart}

		if i < len(as) {
			ap = as[i]
		}

		if i < len(bs) {
			bp = bs[i]
		}

		if c := compareGroup(ap, bp); c != 0 {
			return c
		}
	}

	return 0
}

func compareGroup(a, b []releasePart) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		ap, bp := padPart, padPart

		if i < len(a) {
			ap = a[i]
		}

		if i < len(b) {
			bp = b[i]
		}

		if c := comparePart(ap, bp); c != 0 {
			return c
		}
	}

	return 0
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package board identifies which Chromebook-class hardware model the
// system is running on, and what boot image constraints that model has.
package board

import (
	"fmt"
	"regexp"

	"github.com/siderolabs/gen/optional"
)

// ImageFormat describes how a kernel image is packed for the firmware.
type ImageFormat int

// Supported image formats.
const (
	FormatRaw ImageFormat = iota // self-contained kernel, as on x86
	FormatZImage
	FormatFIT
)

// ParseImageFormat validates an image format name.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch s {
	case "raw", "vmlinuz":
		return FormatRaw, nil
	case "zimage":
		return FormatZImage, nil
	case "fit":
		return FormatFIT, nil
	default:
		return 0, fmt.Errorf("unsupported image format %q", s)
	}
}

func (f ImageFormat) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatZImage:
		return "zimage"
	case FormatFIT:
		return "fit"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// Board is an immutable hardware model profile.
type Board struct {
	// Name is the display name, never empty.
	Name string
	// Codename is the ChromeOS build codename; empty for generic profiles.
	Codename string
	// Arch is always a valid architecture spelling.
	Arch Arch

	// DTCompatible matches device-tree compatible strings, nil if the
	// profile declares none.
	DTCompatible *regexp.Regexp
	// HWIDMatch matches the firmware hardware ID, nil if the profile
	// declares none.
	HWIDMatch *regexp.Regexp

	BootsLZ4Kernel  bool
	BootsLZMAKernel bool

	// ImageMaxSize is the partition size limit in bytes; absent means
	// unbounded.
	ImageMaxSize optional.Optional[uint64]

	ImageFormat ImageFormat
}

func (b *Board) String() string {
	if b.Codename == "" {
		return b.Name
	}

	return fmt.Sprintf("%s (%s)", b.Name, b.Codename)
}

var bareDTPattern = regexp.MustCompile(`^[\w,-]+$`)

var revSKUSplit = regexp.MustCompile(`^(.*?)(-rev\d+)?(-sku\d+)?$`)

// expandDTCompatible widens a bare compatible value to also match any
// -revN/-skuN suffixed variant, unless the value pins one explicitly.
func expandDTCompatible(pattern string) string {
	if !bareDTPattern.MatchString(pattern) {
		return pattern
	}

	groups := revSKUSplit.FindStringSubmatch(pattern)

	prefix, rev, sku := groups[1], groups[2], groups[3]
	if rev == "" {
		rev = `(-rev\d+)?`
	}

	if sku == "" {
		sku = `(-sku\d+)?`
	}

	return prefix + rev + sku
}

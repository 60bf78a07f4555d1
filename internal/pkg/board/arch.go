// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board

import "fmt"

// Arch is a CPU architecture identifier as reported by the kernel or a
// boards database entry.
//
// Several spellings refer to the same hardware ("x86_64" vs "amd64"),
// so comparisons go through Group rather than literal equality.
type Arch string

// Architecture spellings accepted in board profiles and probes.
const (
	ArchARM     Arch = "arm"
	ArchARM64   Arch = "arm64"
	ArchAarch64 Arch = "aarch64"
	ArchI386    Arch = "i386"
	ArchX86     Arch = "x86"
	ArchX86_64  Arch = "x86_64"
	ArchAMD64   Arch = "amd64"
)

// ArchGroup is an equivalence class of architecture spellings.
type ArchGroup int

// The four architecture groups boards can belong to.
const (
	GroupInvalid ArchGroup = iota
	GroupARM32
	GroupARM64
	GroupX86_32
	GroupX86_64
)

var archGroups = map[Arch]ArchGroup{
	ArchARM:     GroupARM32,
	ArchARM64:   GroupARM64,
	ArchAarch64: GroupARM64,
	ArchI386:    GroupX86_32,
	ArchX86:     GroupX86_32,
	ArchX86_64:  GroupX86_64,
	ArchAMD64:   GroupX86_64,
}

// ParseArch validates an architecture spelling.
func ParseArch(s string) (Arch, error) {
	a := Arch(s)
	if _, ok := archGroups[a]; !ok {
		return "", fmt.Errorf("unsupported architecture %q", s)
	}

	return a, nil
}

// Group returns the equivalence class of the architecture.
func (a Arch) Group() ArchGroup {
	return archGroups[a]
}

// Equal reports whether two spellings name the same architecture group.
func (a Arch) Equal(other Arch) bool {
	g := a.Group()

	return g != GroupInvalid && g == other.Group()
}

func (a Arch) String() string {
	return string(a)
}

// Mkimage returns the architecture name the U-Boot mkimage tool expects.
func (a Arch) Mkimage() string {
	switch a.Group() {
	case GroupARM32:
		return "arm"
	case GroupARM64:
		return "arm64"
	case GroupX86_32:
		return "x86"
	case GroupX86_64:
		return "x86_64"
	default:
		return ""
	}
}

// Vboot returns the architecture name the vboot signing tools expect.
func (a Arch) Vboot() string {
	switch a.Group() {
	case GroupARM32:
		return "arm"
	case GroupARM64:
		return "aarch64"
	case GroupX86_32:
		return "x86"
	case GroupX86_64:
		return "amd64"
	default:
		return ""
	}
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/siderolabs/gen/optional"
	"gopkg.in/yaml.v3"
)

//go:embed boards.yaml
var boardsYAML []byte

// Profile is a single (possibly partial) boards database section.
//
// Unset fields are inherited from the nearest ancestor section, so a
// family section can carry e.g. the arch and image format for all of
// its models.
type Profile struct {
	Name            *string `yaml:"name,omitempty"`
	Codename        *string `yaml:"codename,omitempty"`
	Arch            *string `yaml:"arch,omitempty"`
	DTCompatible    *string `yaml:"dt-compatible,omitempty"`
	HWIDMatch       *string `yaml:"hwid-match,omitempty"`
	BootsLZ4Kernel  *bool   `yaml:"boots-lz4-kernel,omitempty"`
	BootsLZMAKernel *bool   `yaml:"boots-lzma-kernel,omitempty"`
	ImageMaxSize    *string `yaml:"image-max-size,omitempty"`
	ImageFormat     *string `yaml:"image-format,omitempty"`
}

// Merge overlays child's set fields onto p.
func (p *Profile) Merge(child Profile) {
	if child.Name != nil {
		p.Name = child.Name
	}

	if child.Codename != nil {
		p.Codename = child.Codename
	}

	if child.Arch != nil {
		p.Arch = child.Arch
	}

	if child.DTCompatible != nil {
		p.DTCompatible = child.DTCompatible
	}

	if child.HWIDMatch != nil {
		p.HWIDMatch = child.HWIDMatch
	}

	if child.BootsLZ4Kernel != nil {
		p.BootsLZ4Kernel = child.BootsLZ4Kernel
	}

	if child.BootsLZMAKernel != nil {
		p.BootsLZMAKernel = child.BootsLZMAKernel
	}

	if child.ImageMaxSize != nil {
		p.ImageMaxSize = child.ImageMaxSize
	}

	if child.ImageFormat != nil {
		p.ImageFormat = child.ImageFormat
	}
}

// Entry is a fully resolved boards database section.
type Entry struct {
	// Section is the hierarchical section name, e.g. "boards/x86/reef".
	Section string
	// Depth is the number of path elements in Section.
	Depth int

	Board *Board

	// CodenameExplicit is true when the codename was declared on this
	// section itself rather than inherited from an ancestor. Only
	// explicit codenames participate in direct codename matching.
	CodenameExplicit bool

	// Parent is the nearest ancestor section present in the catalog,
	// nil for top-level sections.
	Parent *Entry
}

// Catalog is the set of known board profiles, keyed by section name.
type Catalog struct {
	entries map[string]*Entry
	order   []string
}

// NewCatalog resolves raw profiles into a catalog. Sections inherit
// unset keys from their nearest ancestor section.
func NewCatalog(profiles map[string]Profile) (*Catalog, error) {
	order := make([]string, 0, len(profiles))
	for section := range profiles {
		order = append(order, section)
	}

	// Sorting the keys makes iteration deterministic and resolves
	// ancestors before their children.
	sort.Strings(order)

	c := &Catalog{
		entries: make(map[string]*Entry, len(profiles)),
		order:   order,
	}

	for _, section := range order {
		effective := Profile{}

		for _, ancestor := range ancestorSections(section) {
			if p, ok := profiles[ancestor]; ok {
				effective.Merge(p)
			}
		}

		effective.Merge(profiles[section])

		b, err := buildBoard(effective)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", section, err)
		}

		c.entries[section] = &Entry{
			Section:          section,
			Depth:            strings.Count(section, "/") + 1,
			Board:            b,
			CodenameExplicit: profiles[section].Codename != nil,
			Parent:           c.nearestAncestor(section),
		}
	}

	return c, nil
}

// LoadCatalog parses a boards database in YAML form: a flat mapping of
// section names to profiles.
func LoadCatalog(data []byte, overlays ...map[string]Profile) (*Catalog, error) {
	var profiles map[string]Profile

	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse boards database: %w", err)
	}

	if profiles == nil {
		profiles = map[string]Profile{}
	}

	for _, overlay := range overlays {
		for section, p := range overlay {
			base := profiles[section]
			base.Merge(p)
			profiles[section] = base
		}
	}

	return NewCatalog(profiles)
}

// DefaultCatalog loads the boards database shipped with the tool,
// optionally overlaid with configured profile overrides.
func DefaultCatalog(overlays ...map[string]Profile) (*Catalog, error) {
	return LoadCatalog(boardsYAML, overlays...)
}

// Profiles returns the section name to entry mapping.
func (c *Catalog) Profiles() map[string]*Entry {
	return c.entries
}

// Entries returns catalog entries in deterministic catalog order.
func (c *Catalog) Entries() []*Entry {
	result := make([]*Entry, 0, len(c.order))

	for _, section := range c.order {
		result = append(result, c.entries[section])
	}

	return result
}

// Get looks up a section by name.
func (c *Catalog) Get(section string) (*Entry, bool) {
	e, ok := c.entries[section]

	return e, ok
}

func (c *Catalog) nearestAncestor(section string) *Entry {
	ancestors := ancestorSections(section)

	for i := len(ancestors) - 1; i >= 0; i-- {
		if e, ok := c.entries[ancestors[i]]; ok {
			return e
		}
	}

	return nil
}

// ancestorSections lists proper ancestors of a section, top-down:
// "boards/x86/reef" yields "boards", "boards/x86".
func ancestorSections(section string) []string {
	var result []string

	for i, r := range section {
		if r == '/' {
			result = append(result, section[:i])
		}
	}

	return result
}

func buildBoard(p Profile) (*Board, error) {
	if p.Arch == nil {
		return nil, fmt.Errorf("no architecture declared or inherited")
	}

	arch, err := ParseArch(*p.Arch)
	if err != nil {
		return nil, err
	}

	b := &Board{
		Arch: arch,
	}

	if p.Codename != nil {
		b.Codename = *p.Codename
	}

	if p.Name != nil {
		b.Name = *p.Name
	} else if b.Codename != "" {
		b.Name = fmt.Sprintf("Unnamed %s board", b.Codename)
	} else {
		b.Name = "Unnamed unknown board"
	}

	// Malformed profile patterns never match, rather than failing the
	// whole database. DT patterns must match a compatible string in
	// full; HWID patterns match a prefix of the hardware ID.
	if p.DTCompatible != nil && *p.DTCompatible != "" {
		b.DTCompatible, _ = regexp.Compile(`\A(?:` + expandDTCompatible(*p.DTCompatible) + `)\z`) //nolint:errcheck
	}

	if p.HWIDMatch != nil && *p.HWIDMatch != "" {
		b.HWIDMatch, _ = regexp.Compile(`\A(?:` + *p.HWIDMatch + `)`) //nolint:errcheck
	}

	if p.BootsLZ4Kernel != nil {
		b.BootsLZ4Kernel = *p.BootsLZ4Kernel
	}

	if p.BootsLZMAKernel != nil {
		b.BootsLZMAKernel = *p.BootsLZMAKernel
	}

	b.ImageMaxSize, err = parseImageMaxSize(p.ImageMaxSize)
	if err != nil {
		return nil, err
	}

	if p.ImageFormat != nil {
		b.ImageFormat, err = ParseImageFormat(*p.ImageFormat)
		if err != nil {
			return nil, err
		}
	} else {
		switch arch.Group() {
		case GroupARM32, GroupARM64:
			b.ImageFormat = FormatFIT
		default:
			b.ImageFormat = FormatRaw
		}
	}

	return b, nil
}

func parseImageMaxSize(s *string) (optional.Optional[uint64], error) {
	if s == nil {
		return optional.None[uint64](), nil
	}

	switch strings.ToLower(strings.TrimSpace(*s)) {
	case "", "none", "unbounded":
		return optional.None[uint64](), nil
	}

	// Base 0 accepts the 0x/0o/0b prefixes used in existing databases.
	if n, err := strconv.ParseUint(strings.TrimSpace(*s), 0, 64); err == nil {
		return optional.Some(n), nil
	}

	n, err := humanize.ParseBytes(*s)
	if err != nil {
		return optional.None[uint64](), fmt.Errorf("invalid image-max-size %q: %w", *s, err)
	}

	return optional.Some(n), nil
}

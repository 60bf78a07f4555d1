// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board

import (
	"github.com/siderolabs/gen/xslices"
	"go.uber.org/zap"
)

// Probes supplies the live hardware signals resolution reads. All
// probes model missing signals as zero values, never as hangs.
type Probes interface {
	// HWID returns the firmware hardware ID string, empty when the
	// firmware exposes none.
	HWID() string
	// DTCompatibles returns the device-tree compatible strings for the
	// running hardware, most specific first; nil without a device tree.
	DTCompatibles() []string
	// Machine returns the running CPU architecture identifier.
	Machine() string
	// IsCrOSBoot reports whether the system was started by
	// ChromeOS-style firmware.
	IsCrOSBoot() bool
}

// Resolver picks exactly one board profile for the running system.
type Resolver struct {
	catalog *Catalog
	probes  Probes
	logger  *zap.Logger
}

// NewResolver builds a resolver over a catalog and live probes.
func NewResolver(catalog *Catalog, probes Probes, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		catalog: catalog,
		probes:  probes,
		logger:  logger,
	}
}

// Resolve applies the detection strategy in order: explicit codename,
// HWID match, device-tree compatible match, then a generic profile for
// the CPU architecture.
//
// A nil board with a nil error means the system is not running
// ChromeOS-style firmware at all, which is a valid outcome distinct
// from any resolution failure.
func (r *Resolver) Resolve(codename string) (*Board, error) {
	if codename != "" {
		return r.resolveCodename(codename)
	}

	if b := r.resolveHWID(); b != nil {
		return b, nil
	}

	if b := r.resolveDTCompatible(); b != nil {
		return b, nil
	}

	// This might actually be running on non-ChromeOS hardware. Checked
	// after HWID and device-tree detection because the system might be
	// booted via e.g. RW_LEGACY but still with depthcharge.
	if !r.probes.IsCrOSBoot() {
		return nil, nil
	}

	return r.resolveGenericArch()
}

func (r *Resolver) resolveCodename(codename string) (*Board, error) {
	entries := r.catalog.Entries()
	input := splitCodename(codename)

	matches, sentinel := bestCodenameMatches(input, entries)

	// Inputs like coral-rev4 name a hardware revision of a known
	// board; retry without the revision suffix before giving up.
	if sentinel || len(matches) == 0 {
		if stripped := stripRevSKU(input); len(stripped) < len(input) {
			matches, sentinel = bestCodenameMatches(stripped, entries)
		}
	}

	if sentinel || len(matches) == 0 {
		return nil, &ResolutionError{Reason: ReasonUnknown, Codename: codename}
	}

	if len(matches) > 1 {
		return nil, &ResolutionError{
			Reason:     ReasonAmbiguous,
			Codename:   codename,
			Candidates: xslices.Map(matches, func(e *Entry) string { return e.Board.Codename }),
		}
	}

	b := matches[0].Board

	r.logger.Info("assuming board by codename argument or config",
		zap.String("board", b.Name),
		zap.String("codename", b.Codename),
	)

	return b, nil
}

func (r *Resolver) resolveHWID() *Board {
	hwid := r.probes.HWID()
	if hwid == "" {
		return nil
	}

	for _, e := range r.catalog.Entries() {
		if e.Board.HWIDMatch == nil {
			continue
		}

		if e.Board.HWIDMatch.MatchString(hwid) {
			r.logger.Info("detected board by HWID",
				zap.String("board", e.Board.Name),
				zap.String("codename", e.Board.Codename),
				zap.String("hwid", hwid),
			)

			return e.Board
		}
	}

	return nil
}

func (r *Resolver) resolveDTCompatible() *Board {
	compatibles := r.probes.DTCompatibles()
	if compatibles == nil {
		return nil
	}

	// The compatible list is most-specific first, so the profile
	// matching at the lowest index wins; deeper sections break ties.
	bestIdx, bestNegDepth := len(compatibles), 0

	var best *Entry

	for _, e := range r.catalog.Entries() {
		if e.Board.DTCompatible == nil {
			continue
		}

		for i, c := range compatibles {
			if i > bestIdx || (i == bestIdx && -e.Depth >= bestNegDepth) {
				break
			}

			if e.Board.DTCompatible.MatchString(c) {
				best, bestIdx, bestNegDepth = e, i, -e.Depth

				break
			}
		}
	}

	if best == nil {
		return nil
	}

	r.logger.Info("detected board by device-tree compatibles",
		zap.String("board", best.Board.Name),
		zap.String("codename", best.Board.Codename),
	)

	return best.Board
}

// genericSections maps an architecture group to its fallback section.
var genericSections = map[ArchGroup]string{
	GroupARM32:  "boards/arm",
	GroupARM64:  "boards/arm64",
	GroupX86_32: "boards/x86",
	GroupX86_64: "boards/amd64",
}

func (r *Resolver) resolveGenericArch() (*Board, error) {
	arch, err := ParseArch(r.probes.Machine())
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonUndetectable}
	}

	section := genericSections[arch.Group()]

	e, ok := r.catalog.Get(section)
	if !ok {
		// The database may carry its generic profile under another of
		// the four section names, e.g. boards/x86 declaring amd64.
		for _, group := range []ArchGroup{GroupARM32, GroupARM64, GroupX86_32, GroupX86_64} {
			if candidate, found := r.catalog.Get(genericSections[group]); found && candidate.Board.Arch.Equal(arch) {
				e, ok = candidate, true

				break
			}
		}
	}

	if !ok {
		return nil, &ResolutionError{Reason: ReasonUndetectable}
	}

	r.logger.Warn("assuming a generic board by architecture",
		zap.String("board", e.Board.Name),
		zap.Stringer("arch", e.Board.Arch),
	)

	return e.Board, nil
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board

import (
	"fmt"
	"strings"
)

// ResolutionReason classifies why board resolution failed.
type ResolutionReason int

// Resolution failure reasons.
const (
	// ReasonUnknown means an explicit codename matched no profile.
	ReasonUnknown ResolutionReason = iota
	// ReasonAmbiguous means an explicit codename matched more than one
	// profile equally well.
	ReasonAmbiguous
	// ReasonUndetectable means this is a ChromeOS boot environment but
	// no profile could be detected for it.
	ReasonUndetectable
)

// ResolutionError is returned when no unambiguous board is found.
type ResolutionError struct {
	Reason   ResolutionReason
	Codename string
	// Candidates names the conflicting profiles for ambiguous matches.
	Candidates []string
}

func (e *ResolutionError) Error() string {
	switch e.Reason {
	case ReasonUnknown:
		return fmt.Sprintf("unknown board codename %q", e.Codename)
	case ReasonAmbiguous:
		return fmt.Sprintf(
			"ambiguous board codename %q matches %s",
			e.Codename,
			strings.Join(e.Candidates, ", "),
		)
	case ReasonUndetectable:
		return "could not detect which board this is running on"
	default:
		return fmt.Sprintf("board resolution failed (reason %d)", int(e.Reason))
	}
}

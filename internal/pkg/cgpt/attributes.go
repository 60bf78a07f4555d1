// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cgpt reads ChromeOS kernel partitions and the boot attributes
// the firmware keeps on them.
package cgpt

import "fmt"

// attrShift positions the ChromeOS boot fields within the 64-bit GPT
// entry attribute word.
const attrShift = 48

// Attributes are the per-kernel-partition boot fields: the firmware
// tries partitions in decreasing priority order, decrementing tries on
// each unsuccessful attempt.
type Attributes struct {
	// Priority ranges 0..15; 0 means never boot.
	Priority uint8
	// Tries ranges 0..15; remaining boot attempts before the partition
	// is given up on, unless already marked successful.
	Tries uint8
	// Successful marks a partition that booted and was verified.
	Successful bool
}

// Decode unpacks the cgpt attribute value, as printed by `cgpt show -A`.
func Decode(raw uint64) Attributes {
	return Attributes{
		Priority:   uint8(raw & 0xf),
		Tries:      uint8(raw >> 4 & 0xf),
		Successful: raw>>8&0x1 != 0,
	}
}

// Encode packs the attributes back into the cgpt value. Decode(Encode(a))
// returns a unchanged for any in-range a.
func (a Attributes) Encode() uint64 {
	raw := uint64(a.Priority&0xf) | uint64(a.Tries&0xf)<<4

	if a.Successful {
		raw |= 1 << 8
	}

	return raw
}

// DecodeEntry unpacks attributes from a raw GPT partition entry
// attribute word, where the ChromeOS fields occupy bits 48..56.
func DecodeEntry(attrs uint64) Attributes {
	return Decode(attrs >> attrShift)
}

// EntryValue returns the attributes positioned for a GPT entry
// attribute word.
func (a Attributes) EntryValue() uint64 {
	return a.Encode() << attrShift
}

func (a Attributes) String() string {
	successful := 0

	if a.Successful {
		successful = 1
	}

	return fmt.Sprintf("priority=%d tries=%d successful=%d", a.Priority, a.Tries, successful)
}

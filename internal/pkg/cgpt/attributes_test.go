// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cgpt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/cgpt"
)

func TestDecode(t *testing.T) {
	assert.Equal(t, cgpt.Attributes{}, cgpt.Decode(0x000))

	assert.Equal(t, cgpt.Attributes{
		Priority:   0,
		Tries:      15,
		Successful: true,
	}, cgpt.Decode(0x1f0))

	assert.Equal(t, cgpt.Attributes{
		Priority:   1,
		Tries:      2,
		Successful: false,
	}, cgpt.Decode(0x021))

	// bits above the boot fields are ignored
	assert.Equal(t, cgpt.Attributes{Priority: 5}, cgpt.Decode(0xfe00|0x005))
}

func TestEncodeRoundTrip(t *testing.T) {
	for priority := uint8(0); priority <= 15; priority++ {
		for tries := uint8(0); tries <= 15; tries++ {
			for _, successful := range []bool{false, true} {
				attrs := cgpt.Attributes{
					Priority:   priority,
					Tries:      tries,
					Successful: successful,
				}

				assert.Equal(t, attrs, cgpt.Decode(attrs.Encode()))
			}
		}
	}
}

func TestEntryValue(t *testing.T) {
	attrs := cgpt.Attributes{Priority: 2, Tries: 1, Successful: true}

	assert.Equal(t, uint64(0x112)<<48, attrs.EntryValue())
	assert.Equal(t, attrs, cgpt.DecodeEntry(attrs.EntryValue()))
}

func TestString(t *testing.T) {
	assert.Equal(t, "priority=2 tries=1 successful=1",
		cgpt.Attributes{Priority: 2, Tries: 1, Successful: true}.String())
}

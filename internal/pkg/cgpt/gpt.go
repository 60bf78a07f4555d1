// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cgpt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

var gptSignature = []byte("EFI PART")

const (
	// minEntrySize is the standard GPT partition entry size.
	minEntrySize = 128
	// maxEntries guards against a corrupt header claiming an absurd
	// entry array.
	maxEntries = 1024
)

// Entry is one GPT partition table entry.
type Entry struct {
	Type uuid.UUID
	ID   uuid.UUID

	FirstLBA uint64
	LastLBA  uint64

	// Attributes is the raw 64-bit attribute word.
	Attributes uint64

	Name string
}

// Table is a parsed GPT partition entry array. Entries keep their table
// positions: Entries[i] is partition number i+1, unused slots are nil.
type Table struct {
	Entries []*Entry
}

// ReadTable parses the primary GPT of a device or image readable through
// r, with the given logical sector size.
//
//nolint:gocyclo
func ReadTable(r io.ReaderAt, sectorSize uint64) (*Table, error) {
	if sectorSize == 0 {
		return nil, fmt.Errorf("invalid sector size %d", sectorSize)
	}

	header := make([]byte, 92)

	if _, err := r.ReadAt(header, int64(sectorSize)); err != nil {
		return nil, fmt.Errorf("error reading GPT header: %w", err)
	}

	if !bytes.Equal(header[:8], gptSignature) {
		return nil, fmt.Errorf("no GPT signature found")
	}

	entriesLBA := binary.LittleEndian.Uint64(header[72:80])
	numEntries := binary.LittleEndian.Uint32(header[80:84])
	entrySize := binary.LittleEndian.Uint32(header[84:88])

	if entrySize < minEntrySize {
		return nil, fmt.Errorf("invalid GPT entry size %d", entrySize)
	}

	if numEntries > maxEntries {
		return nil, fmt.Errorf("invalid GPT entry count %d", numEntries)
	}

	table := &Table{
		Entries: make([]*Entry, numEntries),
	}

	data := make([]byte, entrySize)
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	for i := range table.Entries {
		offset := int64(entriesLBA)*int64(sectorSize) + int64(i)*int64(entrySize)

		if _, err := r.ReadAt(data, offset); err != nil {
			return nil, fmt.Errorf("error reading GPT entry %d: %w", i+1, err)
		}

		typeGUID, err := guidFromBytes(data[0:16])
		if err != nil {
			return nil, fmt.Errorf("invalid type GUID in GPT entry %d: %w", i+1, err)
		}

		if typeGUID == uuid.Nil {
			continue
		}

		id, err := guidFromBytes(data[16:32])
		if err != nil {
			return nil, fmt.Errorf("invalid GUID in GPT entry %d: %w", i+1, err)
		}

		name, err := utf16.NewDecoder().Bytes(data[56:128])
		if err != nil {
			return nil, fmt.Errorf("invalid name in GPT entry %d: %w", i+1, err)
		}

		table.Entries[i] = &Entry{
			Type:       typeGUID,
			ID:         id,
			FirstLBA:   binary.LittleEndian.Uint64(data[32:40]),
			LastLBA:    binary.LittleEndian.Uint64(data[40:48]),
			Attributes: binary.LittleEndian.Uint64(data[48:56]),
			Name:       string(bytes.Trim(name, "\x00")),
		}
	}

	return table, nil
}

// guidFromBytes decodes an on-disk GUID, where the first three fields
// are little-endian unlike RFC 4122 byte order.
func guidFromBytes(b []byte) (uuid.UUID, error) {
	swapped := []byte{
		b[3], b[2], b[1], b[0],
		b[5], b[4],
		b[7], b[6],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15],
	}

	return uuid.FromBytes(swapped)
}

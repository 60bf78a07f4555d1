// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package compress handles the kernel image compression formats
// depthcharge firmware can unpack, and predicts which one yields the
// smallest bootable payload for a board.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
)

// Kind identifies a kernel compression format.
type Kind int

// Formats the firmware knows how to unpack. Gzip is handled by the
// kernel's own decompressor, not the firmware, so it is never gated on
// a board capability.
const (
	KindNone Kind = iota
	KindGzip
	KindLZ4
	KindLZMA
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindGzip:
		return "gzip"
	case KindLZ4:
		return "lz4"
	case KindLZMA:
		return "lzma"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind validates a compression format name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "none":
		return KindNone, nil
	case "gzip", "gz":
		return KindGzip, nil
	case "lz4":
		return KindLZ4, nil
	case "lzma":
		return KindLZMA, nil
	default:
		return 0, fmt.Errorf("unknown compression format %q", name)
	}
}

var (
	gzipMagic      = []byte{0x1f, 0x8b}
	lz4FrameMagic  = []byte{0x04, 0x22, 0x4d, 0x18}
	lz4LegacyMagic = []byte{0x02, 0x21, 0x4c, 0x18}
	lzmaMagic      = []byte{0x5d, 0x00, 0x00}
)

// Detect sniffs the compression format of data from its magic bytes.
func Detect(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return KindGzip
	case bytes.HasPrefix(data, lz4FrameMagic), bytes.HasPrefix(data, lz4LegacyMagic):
		return KindLZ4
	case bytes.HasPrefix(data, lzmaMagic):
		return KindLZMA
	default:
		return KindNone
	}
}

// Compress packs data in the given format. KindNone returns the input
// unchanged.
func Compress(data []byte, kind Kind) ([]byte, error) {
	switch kind {
	case KindNone:
		return data, nil

	case KindGzip:
		return compressGzip(data)

	case KindLZ4:
		return compressLZ4(data)

	case KindLZMA:
		return compressLZMA(data)

	default:
		return nil, fmt.Errorf("unsupported compression format %s", kind)
	}
}

// Decompress detects the format of data and unpacks it. Unrecognized
// data is returned unchanged with KindNone.
func Decompress(data []byte) ([]byte, Kind, error) {
	kind := Detect(data)

	var (
		r   io.Reader
		err error
	)

	switch kind {
	case KindNone:
		return data, KindNone, nil

	case KindGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))

	case KindLZ4:
		r = lz4.NewReader(bytes.NewReader(data))

	case KindLZMA:
		r, err = lzma.NewReader(bytes.NewReader(data))
	}

	if err != nil {
		return nil, kind, fmt.Errorf("%s decompress: %w", kind, err)
	}

	result, err := io.ReadAll(r)
	if err != nil {
		return nil, kind, fmt.Errorf("%s decompress: %w", kind, err)
	}

	return result, kind, nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}

	return buf.Bytes(), nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := lz4.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	return buf.Bytes(), nil
}

func compressLZMA(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}

	return buf.Bytes(), nil
}

// ForBoard returns the formats a board's firmware can boot, best
// ratio first.
func ForBoard(b *board.Board) []Kind {
	kinds := []Kind{KindNone}

	if b.BootsLZ4Kernel {
		kinds = append(kinds, KindLZ4)
	}

	if b.BootsLZMAKernel {
		kinds = append(kinds, KindLZMA)
	}

	return kinds
}

// Smallest compresses data with each allowed format and returns the
// smallest result.
func Smallest(data []byte, kinds []Kind) ([]byte, Kind, error) {
	if len(kinds) == 0 {
		return data, KindNone, nil
	}

	var (
		best     []byte
		bestKind Kind
	)

	for _, kind := range kinds {
		packed, err := Compress(data, kind)
		if err != nil {
			return nil, kind, err
		}

		if best == nil || len(packed) < len(best) {
			best, bestKind = packed, kind
		}
	}

	return best, bestKind, nil
}

// FitsBoard reports whether an image payload of the given size is
// within the board's image size limit.
func FitsBoard(b *board.Board, size uint64) bool {
	max, ok := b.ImageMaxSize.Get()

	if !ok {
		return true
	}

	return size <= max
}

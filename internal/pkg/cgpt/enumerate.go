// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cgpt

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/blockdev"
)

// KernelType is the GPT partition type GUID ChromeOS firmware boots
// from.
var KernelType = uuid.MustParse("FE3A2A5D-4F32-41A7-B725-ACCC3285A309")

// KernelPartition is a ChromeOS kernel partition together with its
// decoded boot attributes.
type KernelPartition struct {
	Partition  *blockdev.Partition
	Attributes Attributes

	// Size is the partition size in bytes.
	Size uint64
	// Label is the GPT partition name.
	Label string
}

// KernelPartitions enumerates the ChromeOS kernel partitions on a disk,
// in partition table order.
func KernelPartitions(disk *blockdev.Disk) ([]KernelPartition, error) {
	f, err := os.Open(disk.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", disk.Path, err)
	}

	defer f.Close() //nolint:errcheck

	table, err := ReadTable(f, sectorSize(f))
	if err != nil {
		return nil, fmt.Errorf("error reading partition table of %s: %w", disk.Path, err)
	}

	var result []KernelPartition

	for i, entry := range table.Entries {
		if entry == nil || entry.Type != KernelType {
			continue
		}

		part, err := disk.Partition(uint(i + 1))
		if err != nil {
			return nil, err
		}

		result = append(result, KernelPartition{
			Partition:  part,
			Attributes: DecodeEntry(entry.Attributes),
			Size:       (entry.LastLBA - entry.FirstLBA + 1) * sectorSize(f),
			Label:      entry.Name,
		})
	}

	return result, nil
}

// sectorSize asks the kernel for the device's logical sector size,
// falling back to 512 for image files.
func sectorSize(f *os.File) uint64 {
	info, err := f.Stat()
	if err != nil || info.Mode().IsRegular() {
		return 512
	}

	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || size <= 0 {
		return 512
	}

	return uint64(size)
}

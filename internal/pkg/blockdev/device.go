// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package blockdev models the block device topology of a running system:
// disks, partitions, and the device-mapper/RAID layers between a mounted
// filesystem and the physical disks underneath it.
package blockdev

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/siderolabs/go-blockdevice/v2/partitioning"
)

// NotABlockDeviceError is returned when a path does not refer to a block
// device node or a disk image file.
type NotABlockDeviceError struct {
	Path string
}

func (e *NotABlockDeviceError) Error() string {
	return fmt.Sprintf("%s is not a block device", e.Path)
}

// UnknownDeviceError is returned when a device name does not appear in
// the scanned block device graph.
type UnknownDeviceError struct {
	Name string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown block device %q", e.Name)
}

// Disk is a whole-disk device node, or a disk image file.
type Disk struct {
	// Path is the resolved device node path.
	Path string
}

// NewDisk validates path as a disk reference, resolving symlinks such as
// /dev/disk/by-id aliases to the canonical node.
func NewDisk(path string) (*Disk, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("error examining %s: %w", resolved, err)
	}

	mode := info.Mode()

	isBlock := mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0

	if !isBlock && !mode.IsRegular() {
		return nil, &NotABlockDeviceError{Path: resolved}
	}

	return &Disk{Path: resolved}, nil
}

// Name returns the device name without the directory prefix.
func (d *Disk) Name() string {
	return filepath.Base(d.Path)
}

func (d *Disk) String() string {
	return d.Path
}

// Partition returns the n'th partition of the disk. Partition numbers
// start at 1.
func (d *Disk) Partition(n uint) (*Partition, error) {
	if n == 0 {
		return nil, fmt.Errorf("invalid partition number %d on %s", n, d.Path)
	}

	return &Partition{Disk: d, Partno: n}, nil
}

// Partition is a numbered partition of a disk.
type Partition struct {
	Disk   *Disk
	Partno uint
}

// Path returns the partition device node path, following the kernel
// naming convention for the parent disk (sda1, nvme0n1p1, mmcblk0p1).
func (p *Partition) Path() string {
	return partitioning.DevName(p.Disk.Path, p.Partno)
}

func (p *Partition) String() string {
	return p.Path()
}

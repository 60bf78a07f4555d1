// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blockdev_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/blockdev"
)

func TestNewDisk(t *testing.T) {
	dir := t.TempDir()

	image := filepath.Join(dir, "disk.img")
	require.NoError(t, os.WriteFile(image, nil, 0o644))

	alias := filepath.Join(dir, "by-id-alias")
	require.NoError(t, os.Symlink(image, alias))

	disk, err := blockdev.NewDisk(alias)
	require.NoError(t, err)

	assert.Equal(t, image, disk.Path)
	assert.Equal(t, "disk.img", disk.Name())

	_, err = blockdev.NewDisk(dir)

	var notBlock *blockdev.NotABlockDeviceError

	require.ErrorAs(t, err, &notBlock)

	_, err = blockdev.NewDisk(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPartitionPath(t *testing.T) {
	for _, tt := range []struct {
		disk     string
		partno   uint
		expected string
	}{
		{"/dev/sda", 2, "/dev/sda2"},
		{"/dev/nvme0n1", 1, "/dev/nvme0n1p1"},
		{"/dev/mmcblk0", 3, "/dev/mmcblk0p3"},
	} {
		disk := &blockdev.Disk{Path: tt.disk}

		part, err := disk.Partition(tt.partno)
		require.NoError(t, err)

		assert.Equal(t, tt.expected, part.Path())
	}

	_, err := (&blockdev.Disk{Path: "/dev/sda"}).Partition(0)
	assert.Error(t, err)
}

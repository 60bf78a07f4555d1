// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package kernel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/kernel"
)

func touch(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestSetScan(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "boot", "vmlinuz-5.10.0-4-amd64"))
	touch(t, filepath.Join(root, "boot", "initrd.img-5.10.0-4-amd64"))
	touch(t, filepath.Join(root, "boot", "vmlinuz-5.9.0-1-amd64"))
	touch(t, filepath.Join(root, "boot", "config-5.10.0-4-amd64"))

	set, err := kernel.NewSet(root)
	require.NoError(t, err)

	installed := set.Installed()
	require.Len(t, installed, 2)

	assert.Equal(t, "5.10.0-4-amd64", installed[0].Release)
	assert.Equal(t, filepath.Join(root, "boot", "vmlinuz-5.10.0-4-amd64"), installed[0].Kernel)
	assert.Equal(t, filepath.Join(root, "boot", "initrd.img-5.10.0-4-amd64"), installed[0].Initrd)
	assert.Empty(t, installed[0].FdtDir)

	assert.Equal(t, "5.9.0-1-amd64", installed[1].Release)
	assert.Empty(t, installed[1].Initrd)
}

func TestSetFdtDir(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "boot", "vmlinuz-5.10.0"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "lib", "linux-image-5.10.0"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "boot", "dtbs", "5.10.0"), 0o755))

	set, err := kernel.NewSet(root)
	require.NoError(t, err)

	k, err := set.Select("5.10.0")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "usr", "lib", "linux-image-5.10.0"), k.FdtDir)
}

func TestSetBareKernel(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "boot", "zImage"))
	touch(t, filepath.Join(root, "boot", "initrd.img"))

	set, err := kernel.NewSet(root)
	require.NoError(t, err)

	k, err := set.Select("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "boot", "zImage"), k.Kernel)
	assert.Equal(t, filepath.Join(root, "boot", "initrd.img"), k.Initrd)
}

func TestSetSelectMissing(t *testing.T) {
	set, err := kernel.NewSet(t.TempDir())
	require.NoError(t, err)

	_, err = set.Select("5.4.0")

	var notFound *kernel.NotFoundError

	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "5.4.0", notFound.Version)

	_, err = set.Default()
	assert.Error(t, err)
}

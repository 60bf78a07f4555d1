// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
)

func TestArchGroups(t *testing.T) {
	// Same group, different spellings.
	assert.True(t, board.ArchX86_64.Equal(board.ArchAMD64))
	assert.True(t, board.ArchARM64.Equal(board.ArchAarch64))
	assert.True(t, board.ArchI386.Equal(board.ArchX86))

	// Different groups.
	assert.False(t, board.ArchARM.Equal(board.ArchARM64))
	assert.False(t, board.ArchX86.Equal(board.ArchX86_64))

	// Spellings stay distinct values even within a group.
	assert.NotEqual(t, board.ArchARM64.String(), board.ArchAarch64.String())
}

func TestArchToolNames(t *testing.T) {
	for _, tt := range []struct {
		arch    board.Arch
		mkimage string
		vboot   string
	}{
		{board.ArchARM, "arm", "arm"},
		{board.ArchARM64, "arm64", "aarch64"},
		{board.ArchAarch64, "arm64", "aarch64"},
		{board.ArchX86, "x86", "x86"},
		{board.ArchI386, "x86", "x86"},
		{board.ArchX86_64, "x86_64", "amd64"},
		{board.ArchAMD64, "x86_64", "amd64"},
	} {
		assert.Equal(t, tt.mkimage, tt.arch.Mkimage(), "mkimage name for %s", tt.arch)
		assert.Equal(t, tt.vboot, tt.arch.Vboot(), "vboot name for %s", tt.arch)
	}
}

func TestParseArch(t *testing.T) {
	a, err := board.ParseArch("aarch64")
	assert.NoError(t, err)
	assert.Equal(t, board.GroupARM64, a.Group())

	_, err = board.ParseArch("riscv64")
	assert.Error(t, err)

	_, err = board.ParseArch("")
	assert.Error(t, err)
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board_test

import (
	"testing"

	"github.com/siderolabs/go-pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := board.DefaultCatalog()
	require.NoError(t, err)

	kevin, ok := c.Get("boards/arm64/gru/kevin")
	require.True(t, ok)

	// Inherited from boards/arm64 and boards/arm64/gru.
	assert.Equal(t, board.ArchARM64, kevin.Board.Arch)
	assert.Equal(t, board.FormatFIT, kevin.Board.ImageFormat)
	assert.Equal(t, uint64(33554432), kevin.Board.ImageMaxSize.ValueOrZero())
	assert.True(t, kevin.Board.BootsLZ4Kernel)
	assert.False(t, kevin.Board.BootsLZMAKernel)

	// Declared on the section itself.
	assert.Equal(t, "kevin", kevin.Board.Codename)
	assert.True(t, kevin.CodenameExplicit)
	assert.Equal(t, 4, kevin.Depth)

	generic, ok := c.Get("boards/arm64")
	require.True(t, ok)
	assert.Equal(t, "", generic.Board.Codename)
}

func TestCatalogDefaults(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/x86/reef": {
			Codename: pointer.To("reef"),
			Arch:     pointer.To("x86_64"),
		},
	})
	require.NoError(t, err)

	reef, ok := c.Get("boards/x86/reef")
	require.True(t, ok)

	assert.Equal(t, "Unnamed reef board", reef.Board.Name)
	assert.Equal(t, board.FormatRaw, reef.Board.ImageFormat)
	assert.Equal(t, uint64(0), reef.Board.ImageMaxSize.ValueOrZero())
}

func TestCatalogRequiresArch(t *testing.T) {
	_, err := board.NewCatalog(map[string]board.Profile{
		"boards/mystery": {Codename: pointer.To("mystery")},
	})
	assert.Error(t, err)
}

func TestImageMaxSizeForms(t *testing.T) {
	for _, tt := range []struct {
		value string
		size  uint64
	}{
		{"33554432", 33554432},
		{"0x2000000", 33554432},
		{"32 MiB", 33554432},
		{"none", 0},
	} {
		c, err := board.NewCatalog(map[string]board.Profile{
			"boards/amd64": {
				Arch:         pointer.To("amd64"),
				ImageMaxSize: pointer.To(tt.value),
			},
		})
		require.NoError(t, err, "value %q", tt.value)

		e, _ := c.Get("boards/amd64")
		assert.Equal(t, tt.size, e.Board.ImageMaxSize.ValueOrZero(), "value %q", tt.value)
	}
}

func TestDTCompatibleExpansion(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/arm64/kukui/krane": {
			Codename:     pointer.To("krane"),
			Arch:         pointer.To("arm64"),
			DTCompatible: pointer.To("google,krane"),
		},
		"boards/arm64/gru/kevin": {
			Codename:     pointer.To("kevin"),
			Arch:         pointer.To("arm64"),
			DTCompatible: pointer.To("google,kevin-rev15"),
		},
	})
	require.NoError(t, err)

	krane, _ := c.Get("boards/arm64/kukui/krane")

	// A bare value matches any rev/sku variant, in full only.
	assert.True(t, krane.Board.DTCompatible.MatchString("google,krane"))
	assert.True(t, krane.Board.DTCompatible.MatchString("google,krane-sku176"))
	assert.True(t, krane.Board.DTCompatible.MatchString("google,krane-rev2-sku176"))
	assert.False(t, krane.Board.DTCompatible.MatchString("google,krane-extra"))
	assert.False(t, krane.Board.DTCompatible.MatchString("notgoogle,krane"))

	// An explicit rev pins that revision.
	kevin, _ := c.Get("boards/arm64/gru/kevin")
	assert.True(t, kevin.Board.DTCompatible.MatchString("google,kevin-rev15"))
	assert.False(t, kevin.Board.DTCompatible.MatchString("google,kevin-rev14"))
	assert.False(t, kevin.Board.DTCompatible.MatchString("google,kevin"))
}

func TestMalformedPatternsNeverMatch(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/amd64/broken": {
			Codename:  pointer.To("broken"),
			Arch:      pointer.To("amd64"),
			HWIDMatch: pointer.To("BROKEN[-"),
		},
	})
	require.NoError(t, err)

	e, _ := c.Get("boards/amd64/broken")
	assert.Nil(t, e.Board.HWIDMatch)
}

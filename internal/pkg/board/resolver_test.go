// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package board_test

import (
	"errors"
	"testing"

	"github.com/siderolabs/go-pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
)

type stubProbes struct {
	hwid        string
	compatibles []string
	machine     string
	crosBoot    bool
}

func (p stubProbes) HWID() string            { return p.hwid }
func (p stubProbes) DTCompatibles() []string { return p.compatibles }
func (p stubProbes) Machine() string         { return p.machine }
func (p stubProbes) IsCrOSBoot() bool        { return p.crosBoot }

func defaultResolver(t *testing.T, probes board.Probes) *board.Resolver {
	t.Helper()

	c, err := board.DefaultCatalog()
	require.NoError(t, err)

	return board.NewResolver(c, probes, zaptest.NewLogger(t))
}

func TestResolveExplicitCodename(t *testing.T) {
	r := defaultResolver(t, stubProbes{})

	b, err := r.Resolve("kevin")
	require.NoError(t, err)
	assert.Equal(t, "kevin", b.Codename)

	// Normalization unifies dashes and underscores.
	b, err = r.Resolve("Veyron-Speedy")
	require.NoError(t, err)
	assert.Equal(t, "veyron_speedy", b.Codename)

	// A trailing codename part is enough when unambiguous.
	b, err = r.Resolve("speedy")
	require.NoError(t, err)
	assert.Equal(t, "veyron_speedy", b.Codename)

	// The historical x86 prefix matches boards renamed to amd64.
	b, err = r.Resolve("alex")
	require.NoError(t, err)
	assert.Equal(t, "x86-alex", b.Codename)
}

func TestResolveUnknownCodename(t *testing.T) {
	r := defaultResolver(t, stubProbes{})

	_, err := r.Resolve("florp")

	var resErr *board.ResolutionError

	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, board.ReasonUnknown, resErr.Reason)
	assert.Equal(t, "florp", resErr.Codename)
}

func TestResolveDistinctCodenames(t *testing.T) {
	c, err := board.DefaultCatalog()
	require.NoError(t, err)

	r := defaultResolver(t, stubProbes{})

	// An explicit codename never resolves to a different board.
	for _, e := range c.Entries() {
		if e.Board.Codename == "" {
			continue
		}

		b, err := r.Resolve(e.Board.Codename)
		require.NoError(t, err, "codename %q", e.Board.Codename)
		assert.Equal(t, e.Board.Codename, b.Codename)
	}
}

func TestResolveGenericOverRevision(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/amd64/reef": {
			Codename: pointer.To("reef"),
			Arch:     pointer.To("amd64"),
		},
		"boards/amd64/reef-rev2": {
			Codename: pointer.To("reef-rev2"),
			Arch:     pointer.To("amd64"),
		},
	})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{}, zaptest.NewLogger(t))

	// The generic profile wins unless the revision is requested.
	b, err := r.Resolve("reef")
	require.NoError(t, err)
	assert.Equal(t, "reef", b.Codename)

	b, err = r.Resolve("reef-rev2")
	require.NoError(t, err)
	assert.Equal(t, "reef-rev2", b.Codename)
}

func TestResolveRevisionSuffixFallsBack(t *testing.T) {
	r := defaultResolver(t, stubProbes{})

	// coral-rev4 names a revision of coral, not corsola or anything
	// else; the suffix is dropped when no profile claims it.
	b, err := r.Resolve("coral-rev4")
	require.NoError(t, err)
	assert.Equal(t, "coral", b.Codename)
}

func TestResolveAmbiguousCodename(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/amd64/reef": {
			Codename: pointer.To("astronaut"),
			Arch:     pointer.To("amd64"),
		},
		"boards/amd64/coral": {
			Codename: pointer.To("astronaut"),
			Arch:     pointer.To("amd64"),
		},
	})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{}, zaptest.NewLogger(t))

	_, err = r.Resolve("astronaut")

	var resErr *board.ResolutionError

	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, board.ReasonAmbiguous, resErr.Reason)
	assert.Len(t, resErr.Candidates, 2)
}

func TestResolveFamilyChildOutranksParent(t *testing.T) {
	// The child section inherits the family codename; the parent must
	// not outrank it.
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/arm64/gru": {
			Codename: pointer.To("gru"),
			Arch:     pointer.To("arm64"),
		},
		"boards/arm64/gru/gru": {
			Name: pointer.To("Gru itself"),
		},
	})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{}, zaptest.NewLogger(t))

	b, err := r.Resolve("gru")
	require.NoError(t, err)
	assert.Equal(t, "Gru itself", b.Name)
}

func TestResolveHWID(t *testing.T) {
	r := defaultResolver(t, stubProbes{hwid: "CORAL D25-A3B-C4D"})

	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "coral", b.Codename)
}

func TestResolveDTCompatibles(t *testing.T) {
	r := defaultResolver(t, stubProbes{
		compatibles: []string{
			"google,krane-sku176",
			"google,krane",
			"google,kukui",
			"mediatek,mt8183",
		},
	})

	// krane matches at index 0, the family profile only at index 2.
	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "krane", b.Codename)
}

func TestResolveDTCompatiblesPrefersDeeperSection(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/arm64/kukui": {
			Codename:     pointer.To("kukui"),
			Arch:         pointer.To("arm64"),
			DTCompatible: pointer.To("google,kukui"),
		},
		"boards/arm64/kukui/kukui": {
			Codename:     pointer.To("kukui-proper"),
			DTCompatible: pointer.To("google,kukui"),
		},
	})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{
		compatibles: []string{"google,kukui", "mediatek,mt8183"},
	}, zaptest.NewLogger(t))

	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "kukui-proper", b.Codename)
}

func TestResolveGenericArch(t *testing.T) {
	r := defaultResolver(t, stubProbes{machine: "x86_64", crosBoot: true})

	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "", b.Codename)
	assert.True(t, b.Arch.Equal(board.ArchAMD64))
}

func TestResolveGenericArchGroupFallback(t *testing.T) {
	// The generic x86 profile declares x86_64; an x86_64 machine must
	// still find it even though boards/amd64 is absent.
	c, err := board.NewCatalog(map[string]board.Profile{
		"boards/x86": {
			Arch: pointer.To("x86_64"),
		},
		"boards/x86/reef": {
			Codename: pointer.To("reef"),
		},
	})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{machine: "x86_64", crosBoot: true}, zaptest.NewLogger(t))

	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "Unnamed unknown board", b.Name)
}

func TestResolveNotCrOSBoot(t *testing.T) {
	r := defaultResolver(t, stubProbes{machine: "x86_64", crosBoot: false})

	// Plain firmware is a valid "no board" outcome, not an error.
	b, err := r.Resolve("")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestResolveUndetectable(t *testing.T) {
	c, err := board.NewCatalog(map[string]board.Profile{})
	require.NoError(t, err)

	r := board.NewResolver(c, stubProbes{machine: "x86_64", crosBoot: true}, zaptest.NewLogger(t))

	_, err = r.Resolve("")

	var resErr *board.ResolutionError

	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, board.ReasonUndetectable, resErr.Reason)
}

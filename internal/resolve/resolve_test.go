package resolve

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstack-labs/tstack/internal/compat"
	"github.com/tstack-labs/tstack/internal/feature"
	"github.com/tstack-labs/tstack/internal/orderedset"
)

func TestConflictingSelectionFails(t *testing.T) {
	for _, f := range feature.Known() {
		for _, g := range compat.ConflictsWith(f) {
			_, err := ValidateSelection([]feature.ID{f, g}, nil)
			var ce *ConflictError
			require.True(t, errors.As(err, &ce), "%s + %s", f, g)
			assert.False(t, ce.Installed)
			assert.Contains(t, err.Error(), "cannot select both")
		}
	}
}

func TestConflictWithInstalledFails(t *testing.T) {
	for _, f := range feature.Known() {
		for _, g := range compat.ConflictsWith(f) {
			_, err := ValidateSelection([]feature.ID{f}, []feature.ID{g})
			var ce *ConflictError
			require.True(t, errors.As(err, &ce), "%s over installed %s", f, g)
			assert.True(t, ce.Installed)
			assert.Equal(t, f, ce.Requested)
			assert.Equal(t, g, ce.Other)
			assert.Contains(t, err.Error(), "already installed")
		}
	}
}

func TestBuildSystemsAreExclusive(t *testing.T) {
	_, err := ValidateSelection([]feature.ID{feature.Turborepo, feature.Moonrepo}, nil)
	require.Error(t, err)
	assert.Equal(t, "cannot select both turborepo and moonrepo; choose one build system", err.Error())

	_, err = ValidateSelection([]feature.ID{feature.Moonrepo}, []feature.ID{feature.Turborepo})
	require.Error(t, err)
	assert.Equal(t, "cannot add moonrepo, turborepo already installed; choose one build system", err.Error())
	assert.True(t, IsConflict(err))
}

func TestHuskyInjectsBiome(t *testing.T) {
	res, err := ValidateSelection([]feature.ID{feature.Husky}, nil)
	require.NoError(t, err)
	assert.Equal(t, []feature.ID{feature.Husky, feature.Biome}, res.Features)
	assert.Equal(t, []feature.ID{feature.Biome}, res.Injected)
	assert.True(t, res.Has(feature.Biome))
}

func TestInjectionSkipsInstalledCompanion(t *testing.T) {
	res, err := ValidateSelection([]feature.ID{feature.Husky}, []feature.ID{feature.Biome})
	require.NoError(t, err)
	assert.Equal(t, []feature.ID{feature.Husky}, res.Features)
	assert.Empty(t, res.Injected)
	require.Len(t, res.Roots, 1)
	require.Len(t, res.Roots[0].Children, 1)
	assert.True(t, res.Roots[0].Children[0].Installed)
}

func TestInjectionIsIdempotent(t *testing.T) {
	selections := [][]feature.ID{
		{feature.Husky},
		{feature.Husky, feature.Turborepo},
		{feature.Biome, feature.Husky, feature.PWA},
		{},
	}
	installed := []feature.ID{feature.Starlight}

	for _, sel := range selections {
		first, err := ValidateSelection(sel, installed)
		require.NoError(t, err)

		again := orderedset.New(first.Features...)
		again.Add(sel...)
		second, err := ValidateSelection(again.Values(), installed)
		require.NoError(t, err)

		assert.True(t, orderedset.New(first.Features...).Equal(orderedset.New(second.Features...)), "%v", sel)
		assert.Empty(t, second.Injected)
	}
}

func TestDuplicatesCollapse(t *testing.T) {
	res, err := ValidateSelection([]feature.ID{feature.Biome, feature.Biome}, nil)
	require.NoError(t, err)
	assert.Equal(t, []feature.ID{feature.Biome}, res.Features)
}

func TestReselectingInstalledFeatureIsNotAConflict(t *testing.T) {
	_, err := ValidateSelection([]feature.ID{feature.Turborepo}, []feature.ID{feature.Turborepo})
	assert.NoError(t, err)
}

func TestPrintPlan(t *testing.T) {
	res, err := ValidateSelection([]feature.ID{feature.Husky, feature.Turborepo, feature.Biome}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintPlan(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "addon: Husky")
	assert.Contains(t, out, "└── addon: Biome")
	assert.Contains(t, out, "addon: Biome (deduped)")
	assert.Contains(t, out, "Apply: 3 addons")
	assert.NotContains(t, out, "Added as required")
}

func TestPrintPlanShowsInjected(t *testing.T) {
	res, err := ValidateSelection([]feature.ID{feature.Husky}, []feature.ID{feature.Turborepo})
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintPlan(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "└── addon: Biome (required)")
	assert.Contains(t, out, "Added as required: biome")
	assert.Contains(t, out, "(1 features already installed)")
}

// requireExtra makes from require to for the duration of the test.
func requireExtra(t *testing.T, from, to feature.ID) {
	t.Helper()
	orig := requiresOf
	requiresOf = func(id feature.ID) []feature.ID {
		reqs := orig(id)
		if id == from {
			reqs = append(reqs, to)
		}
		return reqs
	}
	t.Cleanup(func() { requiresOf = orig })
}

func TestInjectedConflictFailsFast(t *testing.T) {
	tests := []struct {
		name      string
		selected  []feature.ID
		installed []feature.ID
	}{
		{"against selection", []feature.ID{feature.Turborepo, feature.Husky}, nil},
		{"against installed", []feature.ID{feature.Husky}, []feature.ID{feature.Turborepo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireExtra(t, feature.Biome, feature.Moonrepo)

			res, err := ValidateSelection(tt.selected, tt.installed)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrRuleTable))
			assert.True(t, IsConflict(err))
			assert.Contains(t, err.Error(), "moonrepo")
		})
	}
}

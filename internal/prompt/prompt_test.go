package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstack-labs/tstack/internal/feature"
)

func TestOptionsCarryLabelAndHint(t *testing.T) {
	opts := Options([]feature.ID{feature.Turborepo, feature.Husky})
	require.Len(t, opts, 2)
	assert.Equal(t, feature.Turborepo, opts[0].Value)
	assert.Contains(t, opts[0].Key, "Turborepo - ")
	assert.Contains(t, opts[1].Key, "requires Biome")
}

func TestStaticFiltersToOfferedOptions(t *testing.T) {
	s := Static{
		AddonChoice: []feature.ID{feature.PWA, feature.Biome},
		AuthChoice:  feature.Clerk,
	}

	addons, err := s.Addons([]feature.ID{feature.Biome, feature.Turborepo}, nil)
	require.NoError(t, err)
	assert.Equal(t, []feature.ID{feature.Biome}, addons)

	auth, err := s.Auth([]feature.ID{feature.BetterAuth})
	require.NoError(t, err)
	assert.Equal(t, feature.None, auth)
}

func TestStaticKeepsPreselection(t *testing.T) {
	addons, err := Static{}.Addons([]feature.ID{feature.Biome}, []feature.ID{feature.Turborepo})
	require.NoError(t, err)
	assert.Equal(t, []feature.ID{feature.Turborepo}, addons)
}

var _ Prompter = (*Form)(nil)
var _ Prompter = Static{}

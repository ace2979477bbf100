package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryFrontendIsClassified(t *testing.T) {
	for _, f := range Frontends {
		tags := Classify(f)
		if len(tags) == 0 {
			t.Errorf("frontend %q has no capability tags", f)
		}
		web, native := Is(f, CapWeb), Is(f, CapNative)
		if web == native {
			t.Errorf("frontend %q must be exactly one of web or native", f)
		}
	}
}

func TestClassifyFamilies(t *testing.T) {
	tests := []struct {
		frontend Frontend
		want     Capability
	}{
		{FrontendNext, CapReact},
		{FrontendTanStackRouter, CapReact},
		{FrontendNativeUnistyles, CapReact},
		{FrontendNuxt, CapVue},
		{FrontendSvelte, CapSvelte},
		{FrontendSolid, CapSolid},
	}
	for _, tt := range tests {
		assert.Contains(t, Classify(tt.frontend), tt.want, tt.frontend)
	}
	assert.Empty(t, Classify("angular"))
}

func TestAnyWith(t *testing.T) {
	s := NewFrontendSet(FrontendNuxt, FrontendNativeNativewind)

	assert.True(t, Any(s, CapReact))
	assert.False(t, AnyWith(s, CapWeb, CapReact), "only the native app is react based")
	assert.True(t, AnyWith(s, CapNative, CapReact))
}

func TestNewFrontendSetDropsNone(t *testing.T) {
	s := NewFrontendSet(None, FrontendNext, FrontendNext)
	assert.Equal(t, []Frontend{FrontendNext}, s.Values())
}

func TestParseFrontends(t *testing.T) {
	s, err := ParseFrontends([]string{"next", " native-nativewind ", "none"})
	require.NoError(t, err)
	assert.Equal(t, []Frontend{FrontendNext, FrontendNativeNativewind}, s.Values())

	_, err = ParseFrontends([]string{"angular"})
	assert.ErrorContains(t, err, `unknown frontend "angular"`)
}

func TestParse(t *testing.T) {
	db, err := Parse("database", "postgres", Databases)
	require.NoError(t, err)
	assert.Equal(t, DatabasePostgres, db)

	empty, err := Parse("database", "", Databases)
	require.NoError(t, err)
	assert.Equal(t, Database(""), empty)

	_, err = Parse("orm", "sequelize", ORMs)
	assert.ErrorContains(t, err, `invalid orm "sequelize"`)
}

package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntoContextRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		settings *Run
	}{
		{name: "empty_settings", settings: &Run{}},
		{name: "settings_with_values", settings: &Run{NoColor: true, Page: "optimized", Output: OutputJSON}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := IntoContext(context.Background(), tt.settings)
			got, ok := FromContext(ctx)
			require.True(t, ok)
			assert.Same(t, tt.settings, got)
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	got, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestFromContextNilPointer(t *testing.T) {
	ctx := IntoContext(context.Background(), nil)
	_, ok := FromContext(ctx)
	assert.False(t, ok)
}

func TestFromContextOrDefault(t *testing.T) {
	def := FromContextOrDefault(context.Background())
	require.NotNil(t, def)
	assert.Equal(t, OutputTable, def.Output)

	custom := &Run{Page: "all"}
	assert.Same(t, custom, FromContextOrDefault(IntoContext(context.Background(), custom)))
}

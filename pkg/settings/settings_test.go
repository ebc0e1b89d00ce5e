package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCliParamsDefaults(t *testing.T) {
	p := NewCliParams()
	assert.Equal(t, int8(0), p.MinLogLevel)
	assert.Equal(t, OutputTable, p.Output)
	assert.True(t, p.ExitOnError)
	assert.False(t, p.NoColor)
	assert.Empty(t, p.Page)
}

func TestIsValidOutputFormat(t *testing.T) {
	for _, f := range ValidOutputFormats {
		assert.True(t, IsValidOutputFormat(string(f)), f)
	}
	assert.False(t, IsValidOutputFormat("xml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestVersionInformationHasDefaults(t *testing.T) {
	assert.NotEmpty(t, VersionInformation.BuildVersion)
	assert.Equal(t, "sweepview", CliBinaryName)
}

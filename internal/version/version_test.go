package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.4", GetMinorVersion("0.4.1"))
	assert.Equal(t, "1.12", GetMinorVersion("1.12.0"))
	assert.Equal(t, "", GetMinorVersion("0.4"))
}

func TestVersionComparison(t *testing.T) {
	tests := []struct {
		version string
		target  string
		greater bool
		gte     bool
	}{
		{"0.4.1", "0.4.0", true, true},
		{"0.4.0", "0.4.0", false, true},
		{"0.3.9", "0.4.0", false, false},
		{"0.10.0", "0.9.0", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.version+"_"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.greater, IsVersionGreaterThan(tt.version, tt.target))
			assert.Equal(t, tt.gte, IsVersionGreaterOrEqualThan(tt.version, tt.target))
		})
	}
}

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, Version, GetCurrentVersion("prod"))
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, DevVersion, GetCurrentVersion("demo"))
}

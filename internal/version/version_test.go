package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.3",
		BuildDate: "2026-01-01T00:00:00Z",
		GitCommit: "abcdef1234567890",
		GoVersion: "go1.24",
	}

	s := info.String()
	assert.Contains(t, s, "treeline 1.2.3")
	assert.Contains(t, s, "abcdef1") // commit is shortened
	assert.NotContains(t, s, "abcdef12345")
	assert.Contains(t, s, "go1.24")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "1234567", shortCommit("123456789"))
	assert.Equal(t, unknownValue, shortCommit(unknownValue))
}

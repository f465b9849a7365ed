package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo_ResolvesRuntimeFields(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
}

func TestString_TruncatesLongCommits(t *testing.T) {
	info := Info{
		Version:   "1.2.3",
		Commit:    "0123456789abcdef",
		Date:      "2026-08-31",
		GoVersion: "go1.24.6",
		Platform:  "linux/amd64",
	}

	s := info.String()
	assert.Contains(t, s, "Errand Mate 1.2.3")
	assert.Contains(t, s, "(01234567)")
	assert.False(t, strings.Contains(s, "89abcdef"))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "1.2.3", Info{Version: "1.2.3"}.Short())
}

package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGetFallsBackToVCS(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			Main: debug.Module{Version: "v0.3.0"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2024-01-01T00:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}

	got := Get()
	if got.Version != "v0.3.0" || got.Commit != "abc123" || got.Date != "2024-01-01T00:00:00Z" || !got.Modified {
		t.Errorf("Get() = %+v", got)
	}
}

func TestLdflagsWin(t *testing.T) {
	origRead, origVersion := readBuildInfo, Version
	t.Cleanup(func() { readBuildInfo, Version = origRead, origVersion })
	Version = "v9.9.9"
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "v0.3.0"}}, true
	}

	if got := Get().Version; got != "v9.9.9" {
		t.Errorf("Version = %q, want v9.9.9", got)
	}
	if !strings.Contains(Template(), "version v9.9.9") {
		t.Errorf("Template() = %q", Template())
	}
}

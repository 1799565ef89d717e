package version

import (
	"runtime/debug"
	"testing"
)

func TestApplyVCS(t *testing.T) {
	info := Info{Name: Name, Version: "1.2.0", GitCommit: "unknown", BuildDate: "unknown"}
	applyVCS(&info, []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})

	if info.GitCommit != "0123456789abcdef0123" || !info.Modified || info.BuildDate != "2026-10-01T12:00:00Z" {
		t.Fatalf("applyVCS = %+v", info)
	}
	want := "shutterdeck 1.2.0 (0123456789ab-dirty, built 2026-10-01T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestApplyVCS_KeepsStampedDate(t *testing.T) {
	info := Info{GitCommit: "unknown", BuildDate: "2026-09-30"}
	applyVCS(&info, []debug.BuildSetting{{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"}})
	if info.BuildDate != "2026-09-30" {
		t.Errorf("BuildDate = %q, want stamped value kept", info.BuildDate)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Name != Name || info.Version != Version || info.GoVersion == "" || info.Platform == "" {
		t.Errorf("Get() = %+v", info)
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should never be empty")
	}
}

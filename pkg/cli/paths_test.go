package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths("testapp")
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}
	if paths.AppName != "testapp" {
		t.Errorf("AppName = %q, want %q", paths.AppName, "testapp")
	}
	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths_Layout(t *testing.T) {
	home := t.TempDir()
	paths := &Paths{AppName: "mofel", HomeDir: home}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", paths.BaseDir(), filepath.Join(home, ".mofel")},
		{"AppDir", paths.AppDir(), filepath.Join(home, ".mofel", "mofel")},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(home, ".mofel", "mofel", "config.yaml")},
		{"ReferenceDir", paths.ReferenceDir(), filepath.Join(home, ".mofel", "mofel", "references")},
		{"RecordingDir", paths.RecordingDir(), filepath.Join(home, ".mofel", "mofel", "recordings")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestPaths_Ensure(t *testing.T) {
	paths := &Paths{AppName: "mofel", HomeDir: t.TempDir()}

	if err := paths.EnsureReferenceDir(); err != nil {
		t.Fatalf("EnsureReferenceDir error: %v", err)
	}
	if err := paths.EnsureRecordingDir(); err != nil {
		t.Fatalf("EnsureRecordingDir error: %v", err)
	}
	for _, dir := range []string{paths.ReferenceDir(), paths.RecordingDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%s) error: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s should be a directory", dir)
		}
	}
}

package cascade

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOCUS_CASCADE_DIR", dir)

	want := filepath.Join(dir, "focus-test-cascade.xml")
	if err := os.WriteFile(want, []byte("<opencv_storage/>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "focus-test-dir.xml"), 0o700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		want    string
		wantErr error
	}{
		{"found in configured dir", "focus-test-cascade.xml", want, nil},
		{"directory is not a cascade", "focus-test-dir.xml", "", ErrCascadeNotLoaded},
		{"missing everywhere", "focus-test-missing.xml", "", ErrCascadeNotLoaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.file)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchDirs_ConfiguredDirFirst(t *testing.T) {
	t.Setenv("FOCUS_CASCADE_DIR", "/opt/cascades")

	dirs := SearchDirs()
	if dirs[0] != "/opt/cascades" {
		t.Errorf("first dir = %q", dirs[0])
	}

	t.Setenv("FOCUS_CASCADE_DIR", "")
	if dirs := SearchDirs(); dirs[0] != "./assets" {
		t.Errorf("first dir without override = %q", dirs[0])
	}
}

func TestResolve_KeepsExplicitPath(t *testing.T) {
	got, err := Resolve("/etc/custom.xml", FaceCascadeFile)
	if err != nil || got != "/etc/custom.xml" {
		t.Errorf("Resolve = %q, %v", got, err)
	}
}

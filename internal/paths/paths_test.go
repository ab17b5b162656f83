package paths

import (
	"os"
	"path/filepath"
	"testing"

	"bulletin/internal/config"
)

func TestResolveUsesFlag(t *testing.T) {
	root := t.TempDir()

	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pp.Root != root {
		t.Fatalf("expected root %s, got %s", root, pp.Root)
	}
	if pp.ConfigFile != filepath.Join(root, "bulletin.yaml") {
		t.Fatalf("unexpected config file %s", pp.ConfigFile)
	}
	if pp.EnvFile != filepath.Join(root, ".env") {
		t.Fatalf("unexpected env file %s", pp.EnvFile)
	}
}

func TestResolveDefaultsToWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	pp, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(pp.Root)
	if got != want {
		t.Fatalf("expected root %s, got %s", want, got)
	}
}

func TestResolveRejectsMissingOrFileRoot(t *testing.T) {
	dir := t.TempDir()
	if _, err := Resolve(filepath.Join(dir, "nope")); err == nil {
		t.Fatalf("expected error for missing root")
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(file); err == nil {
		t.Fatalf("expected error for file root")
	}
}

func TestApplyConfigLogsDir(t *testing.T) {
	root := t.TempDir()
	pp := newProjectPaths(root)

	cfg := config.Default()
	cfg.Logging.Dir = "var/log"
	applied := ApplyConfig(pp, cfg)
	if applied.LogsDir != filepath.Join(root, "var", "log") {
		t.Fatalf("unexpected logs dir %s", applied.LogsDir)
	}

	abs := filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Dir = abs
	applied = ApplyConfig(pp, cfg)
	if applied.LogsDir != abs {
		t.Fatalf("expected absolute logs dir %s, got %s", abs, applied.LogsDir)
	}
}

func TestRel(t *testing.T) {
	root := t.TempDir()
	pp := newProjectPaths(root)

	tests := []struct {
		in   string
		want string
	}{
		{in: "public/data/a.yaml", want: "public/data/a.yaml"},
		{in: filepath.Join(root, "public", "data", "a.yaml"), want: "public/data/a.yaml"},
		{in: filepath.Join(filepath.Dir(root), "elsewhere.yaml"), want: filepath.Join(filepath.Dir(root), "elsewhere.yaml")},
	}
	for _, tt := range tests {
		if got := pp.Rel(tt.in); got != tt.want {
			t.Errorf("Rel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := FileExists(file); err != nil || !ok {
		t.Fatalf("FileExists(file) = %v, %v", ok, err)
	}
	if ok, err := FileExists(dir); err != nil || ok {
		t.Fatalf("FileExists(dir) = %v, %v", ok, err)
	}
	if ok, err := FileExists(filepath.Join(dir, "missing")); err != nil || ok {
		t.Fatalf("FileExists(missing) = %v, %v", ok, err)
	}
	if ok, err := DirExists(dir); err != nil || !ok {
		t.Fatalf("DirExists(dir) = %v, %v", ok, err)
	}
	if ok, err := DirExists(file); err != nil || ok {
		t.Fatalf("DirExists(file) = %v, %v", ok, err)
	}
}

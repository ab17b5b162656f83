package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bulletin/internal/config"
)

// ProjectPaths captures canonical locations for a bulletin project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	EnvFile    string
	LogsDir    string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if strings.TrimSpace(projectFlag) != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("project root %s: %w", root, err)
	}
	if !info.IsDir() {
		return ProjectPaths{}, fmt.Errorf("project root %s is not a directory", root)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	return ProjectPaths{
		Root:       root,
		ConfigFile: filepath.Join(root, config.FileName),
		EnvFile:    filepath.Join(root, ".env"),
		LogsDir:    filepath.Join(root, "logs"),
	}
}

// ApplyConfig points configurable locations at the values from cfg.
func ApplyConfig(pp ProjectPaths, cfg config.Config) ProjectPaths {
	if logs := strings.TrimSpace(cfg.Logging.Dir); logs != "" {
		pp.LogsDir = pp.Abs(logs)
	}
	return pp
}

// Abs resolves value against the project root unless it is already absolute.
func (p ProjectPaths) Abs(value string) string {
	if value == "" {
		return ""
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(p.Root, value)
}

// Rel returns path relative to the root using forward slashes, which is the
// form the data loader expects. Paths outside the root are returned as given.
func (p ProjectPaths) Rel(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// Package examples bundles sample bulletin data files into the binary.
package examples

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.yaml
var files embed.FS

// LogicalPrefix is prepended to example names to form their cache keys.
const LogicalPrefix = "update-bulletin/"

// Names lists the bundled examples without their extension, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Read returns the logical path and text of the named example.
func Read(name string) (string, string, error) {
	file := name
	if path.Ext(file) == "" {
		file += ".yaml"
	}
	raw, err := files.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("unknown example %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return LogicalPrefix + file, string(raw), nil
}

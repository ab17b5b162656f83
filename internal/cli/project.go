package cli

import (
	"fmt"

	"bulletin/internal/config"
	"bulletin/internal/paths"
	"bulletin/pkg/bulletin"
)

// loadProject resolves the project root and its effective configuration.
// Configuration errors are fatal; warnings are left to `config check`.
func loadProject() (paths.ProjectPaths, config.Config, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}

	cfg, err := config.LoadProject(pp.Root)
	if err != nil {
		return paths.ProjectPaths{}, config.Config{}, err
	}
	pp = paths.ApplyConfig(pp, cfg)

	for _, r := range cfg.Validate() {
		if r.Level == "error" {
			return paths.ProjectPaths{}, config.Config{}, fmt.Errorf("invalid %s: %s", config.FileName, r.Message)
		}
	}
	return pp, cfg, nil
}

// newLoader returns a loader with a private cache, so repeated invocations in
// one process never see another project's documents.
func newLoader(pp paths.ProjectPaths) *bulletin.Loader {
	loader := bulletin.NewLoader(pp.Root)
	loader.Cache = bulletin.NewCache()
	return loader
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulletin/internal/config"
	"bulletin/internal/paths"
	"bulletin/pkg/bulletin"
)

func newCompositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compositions",
		Short: "List known compositions and their header/tail clips",
		Args:  cobra.NoArgs,
		RunE:  runCompositions,
	}
}

type compositionInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
	Header      string `json:"header,omitempty"`
	Tail        string `json:"tail,omitempty"`
	Assets      string `json:"assets"`
}

func runCompositions(cmd *cobra.Command, _ []string) error {
	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}

	registry := bulletin.DefaultRegistry()
	var infos []compositionInfo
	for _, id := range registry.IDs() {
		comp, _ := registry.Lookup(id)
		info := compositionInfo{
			ID:          id,
			Description: comp.Description,
			Default:     id == registry.Default(),
		}
		if clips, ok := cfg.Composition(id); ok {
			info.Header = clips.Header
			info.Tail = clips.Tail
			info.Assets = assetState(pp, clips)
		} else {
			info.Assets = "not configured"
		}
		infos = append(infos, info)
	}

	if outputJSON {
		return writeJSON(cmd, infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		id := info.ID
		if info.Default {
			id += " (default)"
		}
		rows = append(rows, []string{id, info.Description, info.Header, info.Tail, info.Assets})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Composition", "Description", "Header", "Tail", "Assets"}, rows, nil))
	return nil
}

func assetState(pp paths.ProjectPaths, clips config.CompositionConfig) string {
	var missing []string
	for _, c := range []struct{ name, path string }{{"header", clips.Header}, {"tail", clips.Tail}} {
		ok, err := paths.FileExists(config.ResolvePath(pp.Root, c.path))
		if err != nil || !ok {
			missing = append(missing, c.name)
		}
	}
	switch len(missing) {
	case 0:
		return "ok"
	case 1:
		return "missing " + missing[0]
	}
	return "missing header, tail"
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bulletin/internal/runner"
	"bulletin/internal/tools"
	"bulletin/internal/tui"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Report external tool availability and versions",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}
}

func runTools(cmd *cobra.Command, _ []string) error {
	_, cfg, err := loadProject()
	if err != nil {
		return err
	}

	defs := []tools.Definition{
		{Name: "ffmpeg", Command: []string{cfg.Tools.FFmpeg}, VersionSwitch: "-version"},
		{Name: "ffprobe", Command: []string{cfg.Tools.FFprobe}, VersionSwitch: "-version"},
		{Name: "render", Command: cfg.Render.Command, VersionSwitch: "--version"},
	}
	statuses := tools.Detect(cmd.Context(), runner.CmdRunner{}, defs)

	if outputJSON {
		return writeJSON(cmd, statuses)
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		ok := "yes"
		if !st.Available {
			ok = "no"
		}
		path := st.Path
		if path == "" {
			path = "(missing)"
		}
		rows = append(rows, []string{st.Tool, ok, tui.NonEmptyOrDash(st.Version), path})
	}
	fmt.Fprintln(out, renderTable([]string{"Tool", "OK", "Version", "Path"}, rows, nil))

	for i, st := range statuses {
		if st.Available {
			continue
		}
		fmt.Fprintln(out, tui.WarningStyle.Render(fmt.Sprintf("⚠ %s: %s", st.Tool, st.Error)))
		hintTool := st.Tool
		if len(defs[i].Command) > 0 {
			hintTool = filepath.Base(defs[i].Command[0])
		}
		for _, hint := range tools.InstallHints(hintTool) {
			fmt.Fprintln(out, tui.FaintStyle.Render("  "+hint))
		}
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bulletin/internal/config"
	"bulletin/internal/paths"
	"bulletin/internal/tui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect project configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the clips it points at",
		Args:  cobra.NoArgs,
		RunE:  runConfigCheck,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.LoadProject(pp.Root)
	if err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	cfg, err := config.LoadProject(pp.Root)
	if err != nil {
		return err
	}

	results := append(cfg.Validate(), cfg.ValidateAssets(pp.Root)...)
	if outputJSON {
		if err := writeJSON(cmd, results); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, tui.SuccessStyle.Render("✓ Configuration looks good"))
		}
		for _, r := range results {
			if r.Level == "error" {
				fmt.Fprintln(out, tui.ErrorStyle.Render("✗ "+r.Message))
			} else {
				fmt.Fprintln(out, tui.WarningStyle.Render("⚠ "+r.Message))
			}
		}
	}

	if config.HasErrors(results) {
		return &reportedError{err: fmt.Errorf("%s has errors", config.FileName)}
	}
	return nil
}

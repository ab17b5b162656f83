package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bulletin/internal/tui"
	"bulletin/pkg/bulletin"
	"bulletin/pkg/bulletin/examples"
)

var (
	validateComposition string
	validateExample     string
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [data-file.yaml]",
		Short: "Load and validate a bulletin data file without rendering",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}

	cmd.Flags().StringVar(&validateComposition, "composition", "", "Validate against this composition instead of inferring it")
	cmd.Flags().StringVar(&validateExample, "example", "", "Validate a bundled example ("+strings.Join(examples.Names(), ", ")+")")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateExample != "" && len(args) > 0 {
		return fmt.Errorf("pass either a data file or --example, not both")
	}

	pp, cfg, err := loadProject()
	if err != nil {
		return err
	}
	loader := newLoader(pp)

	var loaded bulletin.LoadedConfig
	if validateExample != "" {
		loaded, err = loadExample(loader, validateExample, validateComposition)
	} else {
		dataFile := cfg.Data.DefaultFile
		if len(args) == 1 {
			dataFile = pp.Rel(args[0])
		}
		loaded, err = loader.Load(dataFile, bulletin.LoadOptions{CompositionOverride: validateComposition})
	}
	if err != nil {
		if outputJSON {
			if encErr := writeJSON(cmd, map[string]any{"valid": false, "error": classify(err)}); encErr != nil {
				return encErr
			}
		} else {
			printFailure(cmd.ErrOrStderr(), "Validation failed", err)
		}
		return &reportedError{err: err}
	}

	if outputJSON {
		return writeJSON(cmd, map[string]any{
			"valid":         true,
			"compositionId": loaded.CompositionID,
			"source":        loaded.SourcePath,
			"data":          loaded.Data,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.SuccessStyle.Render("✓ Data file is valid"))
	fmt.Fprintln(out, renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"File", loaded.SourcePath},
			{"Composition", loaded.CompositionID},
			{"Version", loaded.Data.Version},
			{"Release date", loaded.Data.ReleaseDate},
			{"Highlights", strconv.Itoa(len(loaded.Data.Highlights))},
			{"Minor items", strconv.Itoa(len(loaded.Data.MinorItems))},
		},
		nil,
	))

	if len(loaded.Data.Highlights) > 0 {
		rows := make([][]string, 0, len(loaded.Data.Highlights))
		for i, h := range loaded.Data.Highlights {
			tags := make([]string, 0, len(h.Tags))
			for _, t := range h.Tags {
				tags = append(tags, string(t))
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), h.Title, tui.NonEmptyOrDash(strings.Join(tags, ", "))})
		}
		fmt.Fprintln(out, renderTable([]string{"#", "Highlight", "Tags"}, rows, []columnAlignment{alignRight}))
	}
	return nil
}

// loadExample validates one of the bundled example documents.
func loadExample(loader *bulletin.Loader, name, composition string) (bulletin.LoadedConfig, error) {
	logical, text, err := examples.Read(name)
	if err != nil {
		return bulletin.LoadedConfig{}, err
	}
	data, err := loader.LoadInline(logical, text)
	if err != nil {
		return bulletin.LoadedConfig{}, err
	}

	registry := bulletin.DefaultRegistry()
	id := composition
	if id == "" {
		id = registry.Default()
	} else if _, ok := registry.Lookup(id); !ok {
		return bulletin.LoadedConfig{}, &bulletin.ValidationError{
			Field:   "composition",
			Message: fmt.Sprintf("unknown composition %q (known: %s)", id, strings.Join(registry.IDs(), ", ")),
		}
	}
	return bulletin.LoadedConfig{Data: data, CompositionID: id, SourcePath: logical}, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

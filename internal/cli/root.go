package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bulletin/internal/tui"
)

var (
	projectDir string
	outputJSON bool
)

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var flagErr *flagError
		var reported *reportedError
		switch {
		case errors.As(err, &flagErr):
			fmt.Fprintln(stderr, tui.ErrorStyle.Render("Error: "+flagErr.Error()))
			fmt.Fprintln(stderr)
			fmt.Fprintln(stderr, "Use --help to see available options")
		case errors.As(err, &reported):
		default:
			fmt.Fprintln(stderr, tui.ErrorStyle.Render("Error: "+err.Error()))
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulletin [data-file.yaml]",
		Short: "Render update bulletin videos",
		Long: "Render an update bulletin video from a YAML data file, then join the\n" +
			"header and tail clips and lay background music under it.\n\n" +
			"The data file defaults to public/data/update-bulletin/maximum-data.yaml.",
		Example: "  bulletin\n" +
			"  bulletin data/update-v1.2.0.yaml --output out/my-video.mp4\n" +
			"  bulletin data.yaml --composition HagicodeUpdateBulletin --verbose\n" +
			"  bulletin --skip-audio",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRender,
	}

	cmd.PersistentFlags().StringVar(&projectDir, "project", "", "Path to project directory")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	addRenderFlags(cmd)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &flagError{err: err}
	})

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newCompositionsCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// flagError rewords pflag parse failures to the option vocabulary used in the
// help text.
type flagError struct {
	err error
}

func (e *flagError) Error() string {
	msg := e.err.Error()
	switch {
	case strings.HasPrefix(msg, "unknown flag: "):
		return "unknown option: " + strings.TrimPrefix(msg, "unknown flag: ")
	case strings.HasPrefix(msg, "unknown shorthand flag: "):
		return "unknown option: " + strings.TrimPrefix(msg, "unknown shorthand flag: ")
	case strings.HasPrefix(msg, "flag needs an argument: "):
		return "option requires an argument: " + strings.TrimPrefix(msg, "flag needs an argument: ")
	}
	return msg
}

func (e *flagError) Unwrap() error { return e.err }

// reportedError marks a failure whose details were already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

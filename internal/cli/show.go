package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ddbexpr/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <db> <id>",
		Short: "Print one stored compilation",
		Long: `Print a compilation recorded with "compile --save".

Examples:
  ddbexpr show ./catalogue.db 01920c7e-8f3a-7b21-9c4d-5e6f7a8b9c0d
  ddbexpr show ./catalogue.db 01920c7e-8f3a-7b21-9c4d-5e6f7a8b9c0d --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, dbPath, id string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openCatalogue(formatter, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("compilation not found: %s", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return WrapExitError(ExitCommandError, msg, err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "show failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(rec)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Compilation %s (seq %d)\n", rec.ID, rec.Seq)
	fmt.Fprintf(w, "Fingerprint: %s\n\n", rec.Fingerprint)
	fmt.Fprintf(w, "%s on %s\n", rec.Operation, rec.Table)
	writeWire(w, rec.Compiled)
	return nil
}

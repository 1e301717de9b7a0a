package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ddbexpr/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Table string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List stored compilations",
		Long: `List the compilations recorded with "compile --save", oldest first.

Examples:
  ddbexpr history ./catalogue.db
  ddbexpr history ./catalogue.db --table orders --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "only list compilations for this table")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of compilations to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
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

	records, err := st.List(cmd.Context(), store.ListOptions{Table: opts.Table, Limit: opts.Limit})
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "history failed", err)
	}
	formatter.VerboseLog("Read %d compilation(s) from %s", len(records), dbPath)

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d compilation(s)\n", len(records))
	if len(records) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	for _, rec := range records {
		fmt.Fprintf(w, "%4d  %s  %-16s %s\n", rec.Seq, rec.ID, rec.Operation, rec.Table)
	}
	return nil
}

// openCatalogue opens an existing catalogue. Unlike store.Open it never
// creates the database, so a mistyped path is reported instead of hidden.
func openCatalogue(formatter *OutputFormatter, dbPath string) (*store.Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		msg := fmt.Sprintf("error accessing database: %v", err)
		if errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("database not found: %s", dbPath)
		}
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, WrapExitError(ExitCommandError, msg, err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "open catalogue", err)
	}
	return st, nil
}

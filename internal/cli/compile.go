package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ddbexpr/internal/attrval"
	"github.com/roach88/ddbexpr/internal/request"
	"github.com/roach88/ddbexpr/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Save    string // catalogue database path
	Numbers string // numeric rendering for --explain
	Explain bool
}

// CompileResult is the payload of a successful compile.
type CompileResult struct {
	Compiled request.Wire      `json:"compiled"`
	Explain  map[string]string `json:"explain,omitempty"`
	Saved    *SaveResult       `json:"saved,omitempty"`
}

// SaveResult reports where a compilation was recorded.
type SaveResult struct {
	ID       string `json:"id"`
	Inserted bool   `json:"inserted"`
}

var numberDecoders = map[string]attrval.NumberDecoder{
	"int":     attrval.IntNumbers,
	"float":   attrval.FloatNumbers,
	"decimal": attrval.DecimalNumbers,
}

// ValidNumbers lists the accepted --numbers values.
var ValidNumbers = []string{"int", "float", "decimal"}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Compile a request document to DynamoDB expressions",
		Long: `Compile a YAML, JSON or CUE request document.

The document describes one get, put, update, delete, condition_check,
query or scan request. The output lists every expression string with its
protocol field name, followed by the ExpressionAttributeNames and
ExpressionAttributeValues side tables.

Examples:
  ddbexpr compile query.yaml
  ddbexpr compile update.cue --explain --numbers float
  ddbexpr compile put.yaml --save ./catalogue.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Save, "save", "", "record the compilation in this catalogue database")
	cmd.Flags().StringVar(&opts.Numbers, "numbers", "decimal", "number rendering for --explain (int|float|decimal)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "also print expressions with names and values inlined")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	numbers, ok := numberDecoders[opts.Numbers]
	if !ok {
		msg := fmt.Sprintf("invalid numbers %q: must be one of %v", opts.Numbers, ValidNumbers)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	op, err := LoadRequest(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %s request from %s", op.Name(), path)

	c, err := CompileRequest(op)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	opts.Logger.Debug("request compiled",
		"operation", c.Operation,
		"table", c.Table,
		"names", len(c.ExpressionAttributeNames),
		"values", len(c.ExpressionAttributeValues),
	)

	result := &CompileResult{Compiled: c.Wire()}

	var explained []request.Labelled
	if opts.Explain {
		explained = request.Explain(op, numbers)
		result.Explain = make(map[string]string, len(explained))
		for _, e := range explained {
			result.Explain[e.Field] = e.Text
		}
	}

	if opts.Save != "" {
		saved, err := saveCompilation(cmd, opts, c)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "save failed", err)
		}
		result.Saved = saved
	}

	return outputCompileSuccess(formatter, result, explained)
}

func saveCompilation(cmd *cobra.Command, opts *CompileOptions, c *request.Compiled) (*SaveResult, error) {
	st, err := store.Open(opts.Save, store.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer st.Close()

	rec, inserted, err := st.Save(cmd.Context(), c)
	if err != nil {
		return nil, err
	}
	return &SaveResult{ID: rec.ID, Inserted: inserted}, nil
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, explained []request.Labelled) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s on %s\n\n", result.Compiled.Operation, result.Compiled.Table)
	writeWire(w, result.Compiled)

	if len(explained) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Explain:")
		for _, e := range explained {
			fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Text)
		}
	}

	if result.Saved != nil {
		fmt.Fprintln(w)
		if result.Saved.Inserted {
			fmt.Fprintf(w, "Saved as %s\n", result.Saved.ID)
		} else {
			fmt.Fprintf(w, "Already stored as %s\n", result.Saved.ID)
		}
	}
	return nil
}

// outputLoadError reports a document failure. Missing files are command
// errors; everything else means the document itself is wrong.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		le = toLoadError(ErrCodeGeneric, err)
	}
	_ = formatter.Error(le.Code, le.Message, le.Details())

	code := ExitFailure
	if le.Code == ErrCodeNotFound {
		code = ExitCommandError
	}
	return WrapExitError(code, "compile failed", le)
}

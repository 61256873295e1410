package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/grapnel-db/grapnel/internal/cypher"
	"github.com/grapnel-db/grapnel/internal/filter"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Ref    string
	Strict bool
}

// CompileResult holds the compiled fragment for output.
type CompileResult struct {
	Query      string              `json:"query"`
	Parameters map[string]any      `json:"parameters"`
	Dropped    []filter.Diagnostic `json:"dropped,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [filter-file]",
		Short: "Compile a filter document to a parameterized query fragment",
		Long: `Compile a JSON filter document to a parameterized query fragment.

The document is read from the given file, or from stdin when no file is
given. Invalid operator expressions are dropped and reported; with
--strict the first invalid expression fails the compilation instead.

Examples:
  grapnel compile filters.json
  echo '{"age": {"$gte": 21}}' | grapnel compile
  grapnel compile --ref m --strict filters.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ref, "ref", "n", "entity reference the fragment binds to")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on invalid operator expressions instead of dropping them")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadInput, "reading filter document", err)
	}

	doc, err := filter.ParseJSON(data)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadInput, "parsing filter document", err)
	}

	normalized := filter.Normalize(doc)
	formatter.VerboseLog("Normalized %d top-level expression(s)", len(normalized))

	var (
		validated filter.Doc
		dropped   []filter.Diagnostic
	)
	if opts.Strict {
		validated, err = filter.ValidateStrict(normalized)
		if err != nil {
			return fail(formatter, ExitFailure, ErrCodeBadFilter, "validating filter document", err)
		}
	} else {
		result := filter.Validate(normalized)
		validated, dropped = result.Doc, result.Dropped
	}

	frag, err := cypher.CompileFilter(validated, opts.Ref)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeBadFilter, "compiling filter document", err)
	}

	return outputCompileSuccess(formatter, CompileResult{
		Query:      frag.Text,
		Parameters: frag.Parameters,
		Dropped:    dropped,
	})
}

func outputCompileSuccess(formatter *OutputFormatter, result CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Query == "" {
		fmt.Fprintln(formatter.Writer, "(empty fragment)")
	} else {
		fmt.Fprintln(formatter.Writer, result.Query)
	}

	if len(result.Parameters) > 0 {
		fmt.Fprintln(formatter.Writer)
		names := make([]string, 0, len(result.Parameters))
		for name := range result.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(formatter.Writer, "Parameters:")
		for _, name := range names {
			fmt.Fprintf(formatter.Writer, "  $%s = %v\n", name, result.Parameters[name])
		}
	}

	for _, d := range result.Dropped {
		fmt.Fprintf(formatter.Writer, "Dropped %s on %q: %s\n", d.Operator, d.Property, d.Reason)
	}

	return nil
}

// readInput reads the filter document from the file argument or stdin.
func readInput(args []string, stdin io.Reader) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(stdin)
}

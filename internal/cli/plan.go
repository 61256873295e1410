package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grapnel-db/grapnel/internal/fetch"
	"github.com/grapnel-db/grapnel/internal/schema"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Schemas []string
	Include []string
	Ref     string
}

// PlanClause is one traversal clause for output.
type PlanClause struct {
	Alias   string `json:"alias"`
	Pattern string `json:"pattern"`
}

// PlanResult holds the auto-fetch plan for output.
type PlanResult struct {
	Model   string       `json:"model"`
	Clauses []PlanClause `json:"clauses"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <model>",
		Short: "Show the relationship auto-fetch plan for a model",
		Long: `Show the traversal clauses generated when a model's declared
relationships are fetched eagerly. Relationships whose relationship or
target model is missing from the schema are skipped.

Examples:
  grapnel plan --schema models.cue Developer
  grapnel plan --schema models.cue --include Coffee Developer`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Schemas, "schema", nil, "schema file (repeatable, required)")
	_ = cmd.MarkFlagRequired("schema")
	cmd.Flags().StringSliceVar(&opts.Include, "include", nil, "restrict fetching to these relationship or target models")
	cmd.Flags().StringVar(&opts.Ref, "ref", "n", "entity reference the clauses start from")

	return cmd
}

func runPlan(opts *PlanOptions, model string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, err := loadSchemas(opts.Schemas)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadSchema, "loading schema", err)
	}

	var include []string
	if len(opts.Include) > 0 {
		include = opts.Include
	}
	plan, err := fetch.BuildPlan(reg, model, include, opts.Ref)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeUnknownModel, "building plan", err)
	}

	result := PlanResult{Model: model, Clauses: make([]PlanClause, 0, len(plan.Clauses))}
	for _, c := range plan.Clauses {
		result.Clauses = append(result.Clauses, PlanClause{Alias: c.Alias, Pattern: c.Pattern})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Clauses) == 0 {
		fmt.Fprintf(formatter.Writer, "No relationships to fetch for %s\n", model)
		return nil
	}
	for _, c := range result.Clauses {
		fmt.Fprintf(formatter.Writer, "%-16s OPTIONAL MATCH %s\n", c.Alias, c.Pattern)
	}
	return nil
}

// loadSchemas builds a registry from the given schema files.
func loadSchemas(paths []string) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, path := range paths {
		if err := schema.LoadFile(reg, path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
}

// SchemaModel describes one registered node model for output.
type SchemaModel struct {
	Name          string   `json:"name"`
	Labels        []string `json:"labels"`
	Properties    int      `json:"properties"`
	Relationships []string `json:"relationships,omitempty"`
}

// SchemaResult holds the vetted schema summary.
type SchemaResult struct {
	Models []SchemaModel `json:"models"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <file>...",
		Short: "Vet schema files and summarize the registered models",
		Long: `Load the given schema files into a registry and report the node
models, their labels and their declared relationships. Loading fails on
duplicate models, invalid directions and malformed declarations, which
makes this a schema linter.

Examples:
  grapnel schema models.cue
  grapnel schema base.cue extra.cue --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args, cmd)
		},
	}

	return cmd
}

func runSchema(opts *SchemaOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	reg, err := loadSchemas(paths)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeBadSchema, "loading schema", err)
	}

	names := reg.NodeNames()
	sort.Strings(names)

	result := SchemaResult{Models: make([]SchemaModel, 0, len(names))}
	for _, name := range names {
		node, _ := reg.Node(name)
		model := SchemaModel{
			Name:       name,
			Labels:     node.Labels,
			Properties: len(node.Properties),
		}
		if descriptors, ok := reg.RelationshipsOf(name); ok {
			for _, d := range descriptors {
				model.Relationships = append(model.Relationships,
					fmt.Sprintf("%s -> %s (%s)", d.PropertyName, d.TargetModel, d.RelationshipModel))
			}
		}
		result.Models = append(result.Models, model)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Loaded %d model(s)\n\n", len(result.Models))
	for _, m := range result.Models {
		fmt.Fprintf(formatter.Writer, "%s (:%s), %d propert(ies)\n", m.Name, strings.Join(m.Labels, ":"), m.Properties)
		for _, rel := range m.Relationships {
			fmt.Fprintf(formatter.Writer, "  %s\n", rel)
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grapnel-db/grapnel"
	"github.com/grapnel-db/grapnel/internal/bolt"
	"github.com/grapnel-db/grapnel/internal/filter"
	"github.com/grapnel-db/grapnel/internal/hydrate"
	"github.com/grapnel-db/grapnel/internal/replay"
	"github.com/grapnel-db/grapnel/internal/session"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Config    string
	Filter    string
	AutoFetch bool
	Include   []string
	Sort      string
	Limit     int
	Skip      int
	Record    string
	Replay    string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Run a filtered query against the database",
		Long: `Compile the filter document, run the resulting statement and print the
matching entities.

With --record every statement and its results are written to a SQLite
log; with --replay the statements are served from such a log instead of
a live database, which allows offline reproduction of a session.

Examples:
  grapnel query --config grapnel.yaml --filter '{"age": {"$gte": 21}}' Developer
  grapnel query --config grapnel.yaml --auto-fetch --record run.db Developer
  grapnel query --config grapnel.yaml --replay run.db Developer`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "grapnel.yaml", "path to YAML config")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "JSON filter document")
	cmd.Flags().BoolVar(&opts.AutoFetch, "auto-fetch", false, "fetch declared relationships eagerly")
	cmd.Flags().StringSliceVar(&opts.Include, "include", nil, "restrict auto-fetch to these relationship or target models")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "property to sort by")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "number of results to skip")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record statements and results to this SQLite file")
	cmd.Flags().StringVar(&opts.Replay, "replay", "", "serve statements from this SQLite file instead of a live database")

	return cmd
}

func runQuery(opts *QueryOptions, model string, cmd *cobra.Command) error {
	ctx := context.Background()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadConfig, "loading config", err)
	}

	reg, err := loadSchemas(cfg.Schemas)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadSchema, "loading schema", err)
	}

	var filters filter.Doc
	if opts.Filter != "" {
		filters, err = filter.ParseJSON([]byte(opts.Filter))
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeBadInput, "parsing filter document", err)
		}
	}

	sess, err := openSession(ctx, opts, cfg, formatter)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	var clientOpts []grapnel.ClientOption
	if cfg.Strict {
		clientOpts = append(clientOpts, grapnel.WithStrictFilters())
	}
	client := grapnel.New(sess, reg, clientOpts...)

	var queryOpts []grapnel.QueryOption
	if opts.AutoFetch {
		queryOpts = append(queryOpts, grapnel.WithAutoFetch(opts.Include...))
	}
	if opts.Sort != "" {
		queryOpts = append(queryOpts, grapnel.WithSort(opts.Sort))
	}
	if opts.Limit > 0 {
		queryOpts = append(queryOpts, grapnel.WithLimit(opts.Limit))
	}
	if opts.Skip > 0 {
		queryOpts = append(queryOpts, grapnel.WithSkip(opts.Skip))
	}

	entities, err := client.FindMany(ctx, model, filters, queryOpts...)
	if err != nil {
		if filter.IsMissingFilters(err) || filter.IsMalformedTree(err) {
			return fail(formatter, ExitFailure, ErrCodeBadFilter, "running query", err)
		}
		return fail(formatter, ExitFailure, ErrCodeQueryFailed, "running query", err)
	}

	return outputEntities(formatter, entities)
}

// openSession picks the session backend: a replay log, or a live driver
// optionally wrapped in a recorder.
func openSession(ctx context.Context, opts *QueryOptions, cfg Config, formatter *OutputFormatter) (session.Session, error) {
	if opts.Replay != "" {
		store, err := replay.OpenStore(opts.Replay)
		if err != nil {
			return nil, fail(formatter, ExitCommandError, ErrCodeBadConfig, "opening replay log", err)
		}
		replayer, err := replay.NewReplayer(ctx, store)
		store.Close()
		if err != nil {
			return nil, fail(formatter, ExitCommandError, ErrCodeBadConfig, "loading replay log", err)
		}
		formatter.VerboseLog("Replaying %d recorded exchange(s) from %s", replayer.Remaining(), opts.Replay)
		return replayer, nil
	}

	live, err := bolt.Open(ctx, cfg.Connection)
	if err != nil {
		return nil, fail(formatter, ExitCommandError, ErrCodeBadConfig, "connecting to database", err)
	}
	if opts.Record == "" {
		return live, nil
	}

	store, err := replay.OpenStore(opts.Record)
	if err != nil {
		live.Close(ctx)
		return nil, fail(formatter, ExitCommandError, ErrCodeBadConfig, "opening record log", err)
	}
	formatter.VerboseLog("Recording exchanges to %s", opts.Record)
	return replay.NewRecorder(live, store), nil
}

func outputEntities(formatter *OutputFormatter, entities []*hydrate.Entity) error {
	if formatter.Format == "json" {
		return formatter.Success(entities)
	}

	fmt.Fprintf(formatter.Writer, "%d result(s)\n", len(entities))
	for _, e := range entities {
		fmt.Fprintf(formatter.Writer, "\n%s (:%s)\n", e.ElementID, strings.Join(e.Labels, ":"))
		for k, v := range e.Properties {
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", k, v)
		}
		for alias, related := range e.Related {
			fmt.Fprintf(formatter.Writer, "  %s: %d related\n", alias, len(related))
		}
	}
	return nil
}

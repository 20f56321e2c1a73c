package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/bootstrap"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/config"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/exemplars"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/graph/neo4j"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "graphragctl",
		Short:         "Query and inspect the bibliographic GraphRAG service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "graphragctl", level))
		},
	}
	root.PersistentFlags().Bool("json", false, "print machine-readable JSON")
	root.PersistentFlags().String("log-level", "warn", "log level for diagnostics on stderr")

	root.AddCommand(newAskCmd(), newSchemaCmd(), newExemplarsCmd(), newInteractionsCmd())
	return root
}

// --- ask ---

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question through the full pipeline",
		Long: `Answer a question through the full pipeline.

Examples:
  graphragctl ask "Which papers discuss graph neural networks?"
  graphragctl ask --json "Who has published the most papers?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}

			cfg := config.Load()
			cfg.MetricsEnabled = false
			app, err := bootstrap.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			reply := app.Chat.Reply(cmd.Context(), domain.ChatMessage{Role: "user", Content: question})
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), reply)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return err
		},
	}
}

// --- schema ---

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the introspected graph schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openGraph(cmd, config.Load())
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), schema)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.Describe())
			return err
		},
	}
}

// --- exemplars ---

func newExemplarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exemplars",
		Short: "List the question/query exemplars used for query generation",
		Long: `List the question/query exemplars used for query generation.

With --validate every query is checked against the live graph schema
using the same read-only validator that guards generated queries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = cfg.ExemplarsPath
			}
			corpus, err := exemplars.Load(path)
			if err != nil {
				return err
			}

			validate, _ := cmd.Flags().GetBool("validate")
			if !validate {
				return printExemplars(cmd, corpus)
			}

			store, err := openGraph(cmd, cfg)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())
			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			return validateExemplars(cmd.OutOrStdout(), schema, corpus)
		},
	}
	cmd.Flags().String("file", "", "exemplar YAML file (default: EXEMPLARS_PATH or the embedded set)")
	cmd.Flags().Bool("validate", false, "validate every query against the graph schema")
	return cmd
}

func printExemplars(cmd *cobra.Command, corpus []domain.Exemplar) error {
	if asJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), corpus)
	}
	for i, ex := range corpus {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n    %s\n", i+1, ex.Question, ex.Query); err != nil {
			return err
		}
	}
	return nil
}

func validateExemplars(w io.Writer, schema domain.GraphSchema, corpus []domain.Exemplar) error {
	failed := 0
	for i, ex := range corpus {
		if err := neo4j.ValidateQuery(schema, ex.Query); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %2d. %s\n    %v\n", i+1, ex.Question, err)
			continue
		}
		fmt.Fprintf(w, "ok   %2d. %s\n", i+1, ex.Question)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exemplars do not match the graph schema", failed, len(corpus))
	}
	return nil
}

// --- interactions ---

func newInteractionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactions",
		Short: "List recently answered questions (requires POSTGRES_DSN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.PostgresDSN == "" {
				return fmt.Errorf("POSTGRES_DSN is not set")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			repo, db, err := bootstrap.OpenInteractionStore(cmd.Context(), cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := repo.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return printInteractions(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	return cmd
}

func printInteractions(w io.Writer, items []domain.Interaction) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSTRATEGY\tFAULT\tMS\tQUESTION")
	for _, item := range items {
		strategy := string(item.Strategy)
		if strategy == "" {
			strategy = "-"
		}
		fault := item.FaultKind
		if fault == "" {
			fault = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			item.CreatedAt.Format("2006-01-02 15:04:05"),
			strategy,
			fault,
			item.DurationMS,
			truncate(item.Question, 80),
		)
	}
	return tw.Flush()
}

// --- helpers ---

func openGraph(cmd *cobra.Command, cfg config.Config) (*neo4j.Store, error) {
	return neo4j.New(cmd.Context(), cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword, neo4j.Options{
		Database: cfg.Neo4jDatabase,
	})
}

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

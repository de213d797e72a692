package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/campusvoice/backend/internal/ai"
	"github.com/campusvoice/backend/internal/app"
	"github.com/campusvoice/backend/internal/config"
	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/rules"
	"github.com/campusvoice/backend/internal/service"
)

var (
	cfg    config.Config
	logger zerolog.Logger

	scoreCategory  string
	clusterMembers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Admin tooling for the complaint portal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			zerolog.TimeFieldFormat = time.RFC3339
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Str("service", "portalctl").Logger()
			return nil
		},
	}

	scoreCmd.Flags().StringVar(&scoreCategory, "category", "", "category passed to the classifier")
	clusterCmd.Flags().IntVar(&clusterMembers, "members", 10, "number of recent members to show")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clusterCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		logger.Info().Str("driver", cfg.DBDriver).Msg("schema migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert or refresh the categories from the rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rs, err := rules.Load(cfg.RulesFile)
		if err != nil {
			return err
		}
		store, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if err := store.SeedCategories(ctx, rs.Categories()); err != nil {
			return err
		}
		logger.Info().Int("categories", len(rs.Categories())).Msg("categories seeded")
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <text>",
	Short: "Score the severity of a text without storing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rs, err := rules.Load(cfg.RulesFile)
		if err != nil {
			return err
		}
		provider, err := ai.New(ctx, app.ProviderConfig(cfg))
		if err != nil {
			return err
		}
		scorer := &service.SeverityScorer{
			Rules:              rs,
			Classifier:         provider,
			EscalationScore:    cfg.EscalationScore,
			ClassifierMaxChars: cfg.ClassifierMaxChars,
			Logger:             logger,
		}
		return printJSON(scorer.Score(ctx, strings.Join(args, " "), scoreCategory))
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			st, err := a.Dashboard.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(st)
		})
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster <id>",
	Short: "Show a cluster and its most recent members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			detail, err := a.Dashboard.ClusterDetail(cmd.Context(), args[0], clusterMembers)
			if err != nil {
				return fmt.Errorf("cluster %s: %w", args[0], err)
			}
			return printJSON(detail)
		})
	},
}

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

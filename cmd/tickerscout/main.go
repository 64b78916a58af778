package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TickerScout/internal/config"
	"github.com/TobiSchelling/TickerScout/internal/database"
	"github.com/TobiSchelling/TickerScout/internal/pipeline"
	"github.com/TobiSchelling/TickerScout/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tickerscout",
	Short:        "Watchlist signals from press releases",
	Long:         "TickerScout scans recent press releases for watchlist ticker citations and rates each cited stock BUY, SELL or HOLD from its 30-day trend.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetFlags(log.LstdFlags)
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Ignoring .env: %v", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tickerscout", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/tickerscout/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to change the watchlist, lookback window and price provider.")
		return nil
	},
}

// --- run command ---

var (
	dryRun   bool
	daysBack int
	pages    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> extract -> analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.Options{DaysBack: daysBack, Pages: pages})
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect articles and list the watchlist symbols they cite",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(pipeline.Options{DaysBack: daysBack, Pages: pages, CollectOnly: true})
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, collectCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
		c.Flags().IntVar(&daysBack, "days-back", 0, "Override lookback window (days)")
		c.Flags().IntVar(&pages, "pages", 0, "Override number of listing pages to scan")
	}
}

func runPipeline(opts pipeline.Options) error {
	var db *database.DB
	if !dryRun {
		db = openArchive()
		if db != nil {
			defer db.Close()
		}
	}

	pipe, err := pipeline.NewFromConfig(cfg, db)
	if err != nil {
		return err
	}

	var result *pipeline.Result
	if dryRun {
		result = pipe.DryRun(opts)
	} else {
		result = pipe.Run(context.Background(), opts)
	}

	printSteps(result)
	if err := result.Err(); err != nil {
		return err
	}

	if !dryRun {
		fmt.Printf("\nPipeline complete! %d file(s) written to %s.\n", len(result.Files), cfg.GetOutputDir())
		if db != nil {
			fmt.Println("Run 'tickerscout serve' to browse archived runs.")
		}
	}
	return nil
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL...",
	Short: "Fetch prices and write recommendations for the given symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := openArchive()
		if db != nil {
			defer db.Close()
		}

		pipe, err := pipeline.NewFromConfig(cfg, db)
		if err != nil {
			return err
		}
		result := pipe.Analyze(context.Background(), args)
		printSteps(result)
		return result.Err()
	},
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- archive commands ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Watchlist:")
		fmt.Printf("  %s: %s\n", cfg.Watchlist.Exchange, strings.Join(cfg.Watchlist.Symbols, ", "))
		fmt.Printf("  Prices: %s (%d days, suffix %s)\n", cfg.Prices.Provider, cfg.Prices.LookbackDays, cfg.Prices.Suffix)
		fmt.Printf("  Output: %s\n", cfg.GetOutputDir())

		db, err := requireArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("\nArchive: %s\n", db.Path())
		fmt.Printf("  Runs: %d (%d failed)\n", stats.Runs, stats.FailedRuns)
		if stats.LastRunAt != "" {
			fmt.Printf("  Last run: %s\n", stats.LastRunAt)
		}
		fmt.Printf("  Articles: %d\n", stats.Articles)
		fmt.Printf("  Mentions: %d across %d symbols\n", stats.Mentions, stats.Symbols)
		fmt.Printf("  Recommendations: %d\n", stats.Recommendations)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [SYMBOL]",
	Short: "List recent runs, or the recommendation history of one symbol",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			symbol := strings.ToUpper(args[0])
			recs, err := db.GetSymbolHistory(symbol, historyLimit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Printf("No recommendations archived for %s.\n", symbol)
				return nil
			}
			for _, r := range recs {
				fmt.Printf("  run %-4d %s  %-4s %7.2f%%  $%.2f -> $%.2f\n",
					r.RunID, deref(r.CreatedAt), r.Label, r.PctChange, r.StartPrice, r.EndPrice)
			}
			return nil
		}

		runs, err := db.GetRecentRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs archived yet. Start one with: tickerscout run")
			return nil
		}
		for _, r := range runs {
			recs, _ := db.GetRecommendationsForRun(r.ID)
			var labels []string
			for _, rec := range recs {
				labels = append(labels, rec.Symbol+"="+rec.Label)
			}
			fmt.Printf("  [%d] %s %-7s %3d articles  %s\n",
				r.ID, deref(r.StartedAt), r.Status, r.Articles, strings.Join(labels, " "))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireArchive()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, cfg.GetOutputDir(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// openArchive opens the run archive when enabled. Failures are logged and
// the run continues without archiving.
func openArchive() *database.DB {
	if !cfg.Archive.Enabled {
		return nil
	}
	db, err := database.Open(database.PathIn(cfg.GetDataDir()))
	if err != nil {
		log.Printf("Archive unavailable, continuing without it: %v", err)
		return nil
	}
	return db
}

func requireArchive() (*database.DB, error) {
	if !cfg.Archive.Enabled {
		return nil, fmt.Errorf("archive is disabled (archive.enabled: false)")
	}
	return database.Open(database.PathIn(cfg.GetDataDir()))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

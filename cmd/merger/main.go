package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/export"
	"github.com/nha-facilities/internal/pipeline"
	"github.com/nha-facilities/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "merger",
		Short: "National healthcare facility registry merger",
		Long:  `Merges nine government healthcare facility registries into a single deduplicated master dataset`,
	}

	rootCmd.AddCommand(createMergeCmd())
	rootCmd.AddCommand(createAnalyzeCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createExportDBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// signalContext cancels on SIGINT/SIGTERM so a long merge can be stopped
// cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// createMergeCmd creates the merge subcommand
func createMergeCmd() *cobra.Command {
	var debugEnabled bool
	var dataDir string
	var useCache bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Run the full merge pipeline",
		Long:  `Load all source registries, match duplicate facilities, resolve conflicts and write the master dataset with its report`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromEnv()
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if useCache {
				cfg.CacheEnabled = true
			}

			p, err := pipeline.New(cfg, debugEnabled)
			if err != nil {
				log.Fatalf("Invalid configuration: %v", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := p.Run(ctx)
			if err != nil {
				log.Fatalf("Merge failed: %v", err)
			}

			rep := result.Report
			fmt.Printf("\n=== Merge Results ===\n")
			fmt.Printf("Input records:      %d\n", rep.TotalInputRecords)
			fmt.Printf("Master records:     %d\n", rep.TotalMasters)
			fmt.Printf("Merged clusters:    %d\n", rep.TotalMerges)
			fmt.Printf("Cross-source:       %d\n", rep.MultiSourceMerges)
			fmt.Printf("Duration:           %.1fs\n", rep.DurationSeconds)
			if len(rep.ValidationIssues) > 0 {
				fmt.Printf("\nValidation issues:\n")
				for _, issue := range rep.ValidationIssues {
					fmt.Printf("  - %s\n", issue)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&debugEnabled, "debug", false, "Enable debug output")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Override the source data directory")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Cache normalized sources between runs")
	return cmd
}

// createAnalyzeCmd creates the analyze subcommand
func createAnalyzeCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Inspect source registries without merging",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromEnv()
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			p, err := pipeline.New(cfg, false)
			if err != nil {
				log.Fatalf("Invalid configuration: %v", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			if err := p.Analyze(ctx); err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Override the source data directory")
	return cmd
}

// createServeCmd creates the serve subcommand
func createServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merged dataset over a JSON API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromEnv()

			server, err := web.NewServer(cfg, addr)
			if err != nil {
				log.Fatalf("Failed to start server: %v", err)
			}
			if err := server.Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	return cmd
}

// createExportDBCmd creates the export-db subcommand
func createExportDBCmd() *cobra.Command {
	var debugEnabled bool

	cmd := &cobra.Command{
		Use:   "export-db",
		Short: "Run the merge and load the result into Postgres",
		Long:  `Runs the full merge pipeline and loads the master dataset into Postgres using the PG* environment variables`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromEnv()

			p, err := pipeline.New(cfg, debugEnabled)
			if err != nil {
				log.Fatalf("Invalid configuration: %v", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			result, err := p.Run(ctx)
			if err != nil {
				log.Fatalf("Merge failed: %v", err)
			}

			exporter, err := export.NewPostgresExporter()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer exporter.Close()

			n, err := exporter.ExportMaster(result.Masters)
			if err != nil {
				log.Fatalf("Export failed after %d records: %v", n, err)
			}
			fmt.Printf("Exported %d master records to Postgres\n", n)
		},
	}

	cmd.Flags().BoolVar(&debugEnabled, "debug", false, "Enable debug output")
	return cmd
}

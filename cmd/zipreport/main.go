// zipreport ingests a contract/ZIP table, finds contracts claiming
// overlapping ZIP codes, and renders spreadsheet reports. It can run as a
// one-shot pipeline or serve the same engine over HTTP.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/FedeHorus/zipreport/api"
	"github.com/FedeHorus/zipreport/config"
	"github.com/FedeHorus/zipreport/internal/engine"
	zerrors "github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/internal/ingest"
)

var (
	configPath    string
	flagChunkSize int
	flagBatchSize int
	flagActive    bool
	flagOutputDir string
	flagPort      string

	contractsPath string
	zipsPath      string
	buyerFilter   string
)

var rootCmd = &cobra.Command{
	Use:           "zipreport",
	Short:         "Contract/ZIP overlap indexing and reporting",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings(cmd)
		if err != nil {
			return err
		}

		eng := engine.NewEngine(settings)
		defer eng.Close()

		router := gin.Default()
		api.SetupRoutes(router, eng)

		log.Printf("Starting server on port %s (output dir %s)", settings.Port, settings.OutputDir)
		return router.Run(":" + settings.Port)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a contract file, write all overlap reports, and optionally match a ZIP list",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		if contractsPath == "" {
			return fmt.Errorf("--contracts is required")
		}

		eng := engine.NewEngine(settings)
		defer eng.Close()

		if err := loadContracts(eng, contractsPath); err != nil {
			return err
		}

		info, err := eng.GenerateReports()
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d report files (%d contracts, %d with overlaps, %d batches)\n",
			len(info.Files), info.Contracts, info.Overlaps, info.Batches)

		if zipsPath == "" {
			return nil
		}
		return matchZips(eng, zipsPath, buyerFilter)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Load a contract file and match a ZIP list against it, without the overlap reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		if contractsPath == "" || zipsPath == "" {
			return fmt.Errorf("--contracts and --zips are both required")
		}

		eng := engine.NewEngine(settings)
		defer eng.Close()

		if err := loadContracts(eng, contractsPath); err != nil {
			return err
		}
		return matchZips(eng, zipsPath, buyerFilter)
	},
}

func loadContracts(eng *engine.Engine, path string) error {
	src, err := ingest.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	stats, err := eng.Load(src)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d contracts across %d ZIPs (%d/%d rows retained, %d chunks)\n",
		stats.Contracts, stats.Zips, stats.RowsRetained, stats.RowsSeen, stats.Chunks)
	return nil
}

func matchZips(eng *engine.Engine, path, buyer string) error {
	src, err := ingest.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	result, err := eng.MatchZips(src, buyer)
	if errors.Is(err, zerrors.ErrNoMatches) {
		fmt.Println("No matches: no input ZIP is claimed by any contract; no report was produced")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Matched %d of %d input ZIPs (%d rows); report at %s\n",
		result.MatchedZips, result.InputZips, len(result.Rows), result.ArtifactPath)
	return nil
}

// resolveSettings loads settings from the config file or environment, then
// applies any explicitly set command-line flags on top.
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	var (
		settings config.Settings
		err      error
	)
	if configPath != "" {
		settings, err = config.Load(configPath)
	} else {
		settings, err = config.LoadFromEnv()
	}
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("chunk-size") {
		settings.ChunkSize = flagChunkSize
	}
	if flags.Changed("batch-size") {
		settings.BatchSize = flagBatchSize
	}
	if flags.Changed("active-only") {
		settings.ActiveOnly = flagActive
	}
	if flags.Changed("output-dir") {
		settings.OutputDir = flagOutputDir
	}
	if flags.Changed("port") {
		settings.Port = flagPort
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML config file (env vars used when omitted)")
	pf.IntVar(&flagChunkSize, "chunk-size", config.DefaultChunkSize, "Rows per ingestion batch")
	pf.IntVar(&flagBatchSize, "batch-size", config.DefaultBatchSize, "Contracts per batched export file")
	pf.BoolVar(&flagActive, "active-only", true, "Keep only rows with active contract/buyer status")
	pf.StringVar(&flagOutputDir, "output-dir", config.DefaultOutputDir, "Directory for report artifacts")

	serveCmd.Flags().StringVar(&flagPort, "port", config.DefaultPort, "HTTP listen port")

	for _, c := range []*cobra.Command{runCmd, matchCmd} {
		c.Flags().StringVar(&contractsPath, "contracts", "", "Contract table (.csv or .xlsx)")
		c.Flags().StringVar(&zipsPath, "zips", "", "ZIP list to match (.csv or .xlsx)")
		c.Flags().StringVar(&buyerFilter, "buyer", "", "Keep only match rows whose buyer name contains this substring")
	}

	rootCmd.AddCommand(serveCmd, runCmd, matchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

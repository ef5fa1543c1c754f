package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perf-attribution/internal/service"
	"github.com/perf-attribution/pkg/telemetry"
)

var (
	scenePath   string
	maxWorkers  int
	initTimeout time.Duration
)

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a captured test scene",
	Long: `Analyze classifies every CPU sample of a scene run and aggregates
the results per step.

The scene manifest lists the rounds, their ordered steps, and the
sample files each step references. Sample files may be plain JSON or
zstd/gzip-compressed. Rounds are analyzed concurrently; the per-round
results are written to the configured database and published to the
configured storage backend.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&scenePath, "scene", "s", "", "Scene manifest file (required)")
	analyzeCmd.Flags().IntVar(&maxWorkers, "workers", 0, "Concurrent round workers (default: from config)")
	analyzeCmd.Flags().DurationVar(&initTimeout, "timeout", 0, "Overall analysis timeout (0 = none)")
	analyzeCmd.MarkFlagRequired("scene")

	binName := BinName()
	analyzeCmd.Example = `  # Analyze with the default config lookup
  ` + binName + ` analyze -s ./scene.json

  # Analyze with an explicit config and more round workers
  ` + binName + ` analyze -c ./configs/config.yaml -s ./scene.json --workers 8`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	conf := GetConfig()

	if _, err := os.Stat(scenePath); err != nil {
		return fmt.Errorf("scene manifest not found: %s", scenePath)
	}
	if maxWorkers > 0 {
		conf.Analysis.MaxWorker = maxWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if initTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, initTimeout)
		defer cancel()
	}

	shutdown, err := telemetry.Init(ctx, &conf.Telemetry)
	if err != nil {
		log.Warn("failed to initialize telemetry: %v", err)
	} else {
		defer shutdown(context.Background())
	}

	svc, err := service.New(conf, log)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Close()

	start := time.Now()
	result, err := svc.AnalyzeScene(ctx, scenePath)
	if err != nil {
		return err
	}

	log.Info("scene %s analyzed in %s", result.Scene, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Scene:  %s\n", result.Scene)
	fmt.Printf("Run ID: %d\n", result.RunID)
	for _, round := range result.Rounds {
		fmt.Printf("  round %d: %d steps\n", round.RoundIndex, len(round.Steps))
	}
	return nil
}

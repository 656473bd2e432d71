/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/palmtree/pkg/config"
	"github.com/ssargent/palmtree/pkg/metrics"
	"github.com/ssargent/palmtree/pkg/palm"
)

// fixedSeed is the deterministic PRNG seed spec.md §8 requires for
// repeatable runs, repurposing the commented-out `[1u8; 32]` seed
// carried (but never activated) in original_source/src/main.rs and
// tests/tree.rs (SPEC_FULL.md §C.2).
var fixedSeed = [32]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

var (
	configPath      string
	useRandomSeed   bool
	metricsOverride bool
)

// rootCmd drives a PALM batch workload against an in-process tree,
// taking the reference driver's three positional arguments and
// printing the same two cumulative timing numbers
// (original_source/src/main.rs, SPEC_FULL.md §C.3).
var rootCmd = &cobra.Command{
	Use:   "palmbench NUM_THREADS BATCH_SIZE NUM_BATCHES",
	Short: "Drive a PALM batched concurrent B+tree workload",
	Long: `palmbench submits NUM_BATCHES batches of BATCH_SIZE queries each
to a PALM tree served by NUM_THREADS persistent workers, alternating
insertions and retrievals by position within a batch, then reports the
cumulative time spent sorting/partitioning batches versus running the
parallel worker stages.`,
	Args: cobra.ExactArgs(3),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var cfg *config.Config
		if configPath != "" && config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}
		if metricsOverride {
			cfg.Metrics.Enabled = true
		}

		var reg *metrics.Metrics
		if cfg.Metrics.Enabled {
			reg = metrics.NewMetrics()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			go func() {
				log.Printf("palmbench: metrics listening on %s", cfg.Metrics.Bind)
				if err := http.ListenAndServe(cfg.Metrics.Bind, mux); err != nil {
					log.Printf("palmbench: metrics server stopped: %v", err)
				}
			}()
		}

		ctx := context.WithValue(cmd.Context(), "config", cfg)
		ctx = context.WithValue(ctx, "metrics", reg)
		cmd.SetContext(ctx)
		return nil
	},
	RunE: runBenchmark,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a driver config file (yaml)")
	rootCmd.PersistentFlags().BoolVar(&useRandomSeed, "random-seed", false, "Seed the workload PRNG from the current time instead of the fixed [1,1,...] seed")
	rootCmd.PersistentFlags().BoolVar(&metricsOverride, "metrics", false, "Expose a Prometheus /metrics endpoint even if the config file disables it")
}

// runBenchmark parses the three positional arguments, builds a fresh
// Pool, and drives NumBatches batches of BatchSize queries through it,
// mirroring original_source/src/main.rs's run loop.
func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, _ := cmd.Context().Value("config").(*config.Config)
	reg, _ := cmd.Context().Value("metrics").(*metrics.Metrics)

	numThreads, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid NUM_THREADS %q: %w", args[0], err)
	}
	batchSize, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid BATCH_SIZE %q: %w", args[1], err)
	}
	numBatches, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid NUM_BATCHES %q: %w", args[2], err)
	}

	pool, err := palm.NewPool[int32, int32](numThreads)
	if err != nil {
		return fmt.Errorf("failed to start pool: %w", err)
	}
	defer pool.Close()

	seed := fixedSeed
	if useRandomSeed {
		t := time.Now().UnixNano()
		for i := 0; i < 8; i++ {
			seed[i] = byte(t >> (8 * i))
		}
	}
	rng := rand.New(rand.NewChaCha8(seed))

	keyRange := int32(cfg.KeyRange)
	var prevSplits, prevSteals int64
	var prevSeq, prevPar time.Duration

	for b := 0; b < numBatches; b++ {
		batchID := ksuid.New()
		queries := generateBatch(rng, batchSize, keyRange)

		results := pool.SubmitBatch(queries)

		if cfg.Logging.Level == "debug" {
			log.Printf("batch %s: %d queries, %d results", batchID, len(queries), len(results))
		}

		if reg != nil {
			reg.RecordBatch(true, len(queries))
			reg.UpdateTreeDepth(pool.Depth())

			splits, steals := pool.Splits(), pool.Steals()
			reg.RecordSplits(int(splits - prevSplits))
			reg.RecordRedistributionSteals(int(steals - prevSteals))
			prevSplits, prevSteals = splits, steals

			seq, par := pool.Timings()
			reg.RecordStageDuration("sequential", seq-prevSeq)
			reg.RecordStageDuration("parallel", par-prevPar)
			prevSeq, prevPar = seq, par
		}
	}

	seq, par := pool.Timings()
	fmt.Printf("[Time] Sequential: %d µs, Parallel: %d µs\n",
		seq.Microseconds(), par.Microseconds())
	return nil
}

// generateBatch alternates insertion/retrieval by index parity,
// matching original_source/tests/tree.rs's workload generator
// (SPEC_FULL.md §C.1): even positions insert a uniform-random (k, v)
// pair in [0, keyRange); odd positions retrieve a uniform-random key
// in [1, keyRange), preserving that asymmetric lower bound.
func generateBatch(rng *rand.Rand, batchSize int, keyRange int32) []palm.Query[int32, int32] {
	queries := make([]palm.Query[int32, int32], batchSize)
	for i := 0; i < batchSize; i++ {
		if i%2 == 0 {
			queries[i] = palm.Query[int32, int32]{
				Kind:  palm.Insertion,
				Key:   rng.Int32N(keyRange),
				Value: rng.Int32N(keyRange),
			}
		} else {
			queries[i] = palm.Query[int32, int32]{
				Kind: palm.Retrieval,
				Key:  1 + rng.Int32N(keyRange-1),
			}
		}
	}
	return queries
}

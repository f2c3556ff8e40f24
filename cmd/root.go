// Package cmd implements the goldcheck command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/goldcheck/internal/compare"
	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/geo"
	"github.com/zjrosen/goldcheck/internal/infrastructure/sqlite"
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
	"github.com/zjrosen/goldcheck/internal/product/nc"
	"github.com/zjrosen/goldcheck/internal/report"
	"github.com/zjrosen/goldcheck/internal/sidecar"
	"github.com/zjrosen/goldcheck/internal/telemetry"
	"github.com/zjrosen/goldcheck/internal/watch"
)

// ErrMismatch distinguishes "validation ran and found differences"
// (exit 1) from I/O failures (exit 2).
var ErrMismatch = errors.New("products do not match")

var (
	cfg        config.Config
	policyFile string
)

var rootCmd = &cobra.Command{
	Use:   "goldcheck",
	Short: "Golden-file regression validator for raster products",
	Long: `goldcheck compares a newly generated raster product against a
previously accepted golden product and reports a pass/fail verdict.

Numeric rasters use a tolerance band with a pixel-failure budget,
classification masks use area overlap, and the displacement dataset is
compared modulo 2π at the sensor wavelength.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompare,
}

// Execute runs the CLI and maps outcomes to process exit codes:
// 0 match, 1 mismatch, 2 I/O failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrMismatch) {
			os.Exit(1)
		}
		log.ErrorErr(log.CatCLI, "run aborted", err)
		os.Exit(2)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.String("golden", "", "path to the golden (reference) product")
	flags.String("test", "", "path to the product under validation")
	flags.String("data-dset", "displacement", "name of the measurement dataset")
	flags.StringSlice("exclude-groups", nil, "group names to skip entirely")
	flags.StringVar(&policyFile, "policy", "", "YAML file overriding comparison thresholds")
	flags.Bool("watch", false, "re-run when the test product changes")
	flags.Bool("trace", false, "export otel spans to stdout")
	flags.Int("concurrency", 0, "dataset validation workers (0 = NumCPU)")

	pflags := rootCmd.PersistentFlags()
	pflags.String("db", config.DefaultDBPath(), "run-history database (empty disables)")
	pflags.String("log-level", "info", "log level: debug, info, warn, error")
	must(viper.BindPFlag("db", pflags.Lookup("db")))
	must(viper.BindPFlag("log_level", pflags.Lookup("log-level")))

	must(viper.BindPFlag("golden", flags.Lookup("golden")))
	must(viper.BindPFlag("test", flags.Lookup("test")))
	must(viper.BindPFlag("data_dataset", flags.Lookup("data-dset")))
	must(viper.BindPFlag("exclude_groups", flags.Lookup("exclude-groups")))
	must(viper.BindPFlag("watch", flags.Lookup("watch")))
	must(viper.BindPFlag("trace", flags.Lookup("trace")))
	must(viper.BindPFlag("concurrency", flags.Lookup("concurrency")))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// initConfig layers defaults, an optional ~/.goldcheck.yaml, GOLDCHECK_*
// environment variables, and flags into one Config.
func initConfig() {
	viper.SetConfigName(".goldcheck")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("GOLDCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "config file error: %v\n", err)
		}
	}

	cfg = config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	log.Init(os.Stderr, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return err
	}

	pol := cfg.Policy
	if policyFile != "" {
		loaded, err := config.LoadPolicyFile(policyFile)
		if err != nil {
			return err
		}
		// CLI flags still win over the policy file for the fields
		// exposed as flags.
		loaded.DataDatasetName = pol.DataDatasetName
		if len(pol.ExcludedGroups) > 0 {
			loaded.ExcludedGroups = pol.ExcludedGroups
		}
		pol = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace {
		shutdown, err := telemetry.Init()
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.ErrorErr(log.CatCLI, "trace shutdown failed", err)
			}
		}()
	}

	var runs *sqlite.RunRepository
	if cfg.DBPath != "" {
		db, err := sqlite.NewDB(cfg.DBPath)
		if err != nil {
			// History is best-effort; a broken store must not block CI.
			log.ErrorErr(log.CatDB, "run-history store unavailable", err)
		} else {
			defer db.Close()
			runs = db.Runs()
		}
	}

	matched, err := runOnce(ctx, pol, runs)
	if err != nil {
		return err
	}

	if cfg.Watch {
		watchErr := watch.Watch(ctx, cfg.TestPath, watch.DefaultDebounce, func() {
			m, err := runOnce(ctx, pol, runs)
			if err != nil {
				log.ErrorErr(log.CatCLI, "re-run failed", err)
				return
			}
			matched = m
		})
		if watchErr != nil {
			return watchErr
		}
	}

	if !matched {
		return ErrMismatch
	}
	return nil
}

// runOnce executes one full comparison: tree walk, geospatial
// metadata, side collection, then summary, history and verdict.
func runOnce(ctx context.Context, pol config.Policy, runs *sqlite.RunRepository) (bool, error) {
	startedAt := time.Now()

	golden, err := nc.Open(cfg.GoldenPath)
	if err != nil {
		return false, err
	}
	defer closeContainer(golden, "golden")
	test, err := nc.Open(cfg.TestPath)
	if err != nil {
		return false, err
	}
	defer closeContainer(test, "test")

	session := compare.NewSession()
	workers := cfg.Concurrency
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	opts := compare.Options{Concurrency: workers}
	if err := compare.Compare(ctx, session, golden, test, pol, opts); err != nil {
		return false, err
	}
	if err := geo.Compare(session, geo.NewContainerReader(golden), geo.NewContainerReader(test)); err != nil {
		return false, err
	}
	if err := sidecar.Compare(session, cfg.GoldenPath, cfg.TestPath); err != nil {
		return false, err
	}

	fmt.Println(report.Summary(cfg.GoldenPath, cfg.TestPath, session))

	duration := time.Since(startedAt)
	if runs != nil {
		if id, err := runs.Save(cfg.GoldenPath, cfg.TestPath, session, startedAt, duration); err != nil {
			log.ErrorErr(log.CatDB, "saving run failed", err)
		} else {
			log.Debug(log.CatDB, "run recorded", "id", id)
		}
	}

	verdict := session.Passed()
	log.Info(log.CatCLI, "comparison complete",
		"golden", cfg.GoldenPath,
		"test", cfg.TestPath,
		"verdict", verdictWord(verdict),
		"hard_violations", session.HardCount(),
		"duration", duration)
	return verdict, nil
}

func closeContainer(c product.Container, role string) {
	if err := c.Close(); err != nil {
		log.ErrorErr(log.CatContainer, "closing "+role+" container failed", err)
	}
}

func verdictWord(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

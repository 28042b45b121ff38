package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lactate-lab/internal/config"
	"lactate-lab/internal/monitoring"
	"lactate-lab/internal/service"
	"lactate-lab/internal/store"
	"lactate-lab/internal/threshold"
)

// Global flags
var (
	logLevel  string
	logFormat string
	dbPath    string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "lactate",
	Short: "Lactate threshold analysis for incremental step tests",
	Long: `Import incremental exercise test results, detect the aerobic (LT1) and
anaerobic (LT2) lactate thresholds with eight published methods, and derive
five training zones. Incomplete stages are corrected before analysis.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newImportCmd(),
		newSessionsCmd(),
		newAnalyzeCmd(),
		newCompareCmd(),
		newOverrideCmd(),
		newViewCmd(),
		newPlotCmd(),
		newCorrectCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every data command needs
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *store.Store
	svc    *service.AnalysisService
}

func (e *env) Close() error {
	return e.store.Close()
}

// loadConfig reads the config file, writing the example config and falling
// back to defaults when there is none, then applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Fprintf(os.Stderr, "No config file found. Wrote defaults to %s/config.json\n", configDir)
		defaults := config.DefaultConfig()
		cfg = &defaults
	} else if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if verbose {
		cfg.Log.Level = logrus.DebugLevel.String()
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("config validation failed (edit %s/config.json): %w", configDir, err)
	}
	return cfg, nil
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := monitoring.New(cfg.Log.Level, cfg.Log.Format, nil)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	svc, err := service.NewAnalysisService(db, cfg.Engine, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating analysis service: %w", err)
	}

	logger.WithField("db", cfg.Storage.DBPath).Debug("ready")
	return &env{cfg: cfg, logger: logger, store: db, svc: svc}, nil
}

// withEnv wraps a command body with setup and teardown
func withEnv(run func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd, e, args)
	}
}

// methodFlag parses an optional --method value; empty means the configured default
func methodFlag(name string) (threshold.Method, error) {
	if name == "" {
		return "", nil
	}
	return threshold.ParseMethod(name)
}

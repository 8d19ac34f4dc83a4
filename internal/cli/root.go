package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/aivis/internal/model"
)

// Version is overridden at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aivis",
	Short: "aivis - AI search visibility tracking",
	Long: `aivis tracks how visible a brand is in answers from AI search engines
(ChatGPT, Gemini, Claude, Perplexity).

It records per-engine checks for each tracked keyword, aggregates them
into a visibility score, trends and breakdowns, and recommends where to
improve.

Checks are simulated unless probe.mode is set to "live".`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number for aivis.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aivis %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.aivis/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("store", "", "store driver (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("postgres-url", "", "Postgres connection URL")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("store.sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	_ = viper.BindPFlag("store.postgres_url", rootCmd.PersistentFlags().Lookup("postgres-url"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.aivis")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// AIVIS_STORE_DRIVER overrides store.driver, and so on
	viper.SetEnvPrefix("AIVIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file, env and flags over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	setDefaults(cfg)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it
// even when no config file mentions it.
func setDefaults(cfg *model.Config) {
	viper.SetDefault("store.driver", cfg.Store.Driver)
	viper.SetDefault("store.sqlite_path", cfg.Store.SQLitePath)
	viper.SetDefault("store.postgres_url", cfg.Store.PostgresURL)
	viper.SetDefault("store.migrate_on_start", cfg.Store.MigrateOnStart)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	viper.SetDefault("cache.redis_password", cfg.Cache.RedisPassword)
	viper.SetDefault("cache.redis_db", cfg.Cache.RedisDB)
	viper.SetDefault("generator.presence_probability", cfg.Generator.PresenceProbability)
	viper.SetDefault("generator.on_demand_max_citations", cfg.Generator.OnDemandMaxCitations)
	viper.SetDefault("generator.seed_max_citations", cfg.Generator.SeedMaxCitations)
	viper.SetDefault("generator.random_seed", cfg.Generator.RandomSeed)
	viper.SetDefault("probe.mode", cfg.Probe.Mode)
	viper.SetDefault("probe.workers", cfg.Probe.Workers)
	viper.SetDefault("probe.requests_per_second", cfg.Probe.RequestsPerSecond)
	viper.SetDefault("probe.burst", cfg.Probe.Burst)
	viper.SetDefault("server.address", cfg.Server.Address)
	viper.SetDefault("server.schedule", cfg.Server.Schedule)
	viper.SetDefault("server.schedule_enabled", cfg.Server.ScheduleEnabled)
	viper.SetDefault("seed.keywords", cfg.Seed.Keywords)
	viper.SetDefault("seed.days", cfg.Seed.Days)
	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
}

// newLogger builds the process logger from log.level and log.format.
// --verbose forces debug.
func newLogger(cfg model.LogConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/argyll/wizard/internal/config"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

// RootOptions holds global flags and the configuration shared by every
// command
type RootOptions struct {
	LogLevel string
	Config   *config.Config
}

const Name = "wizard"

// Version is stamped by the build
var Version = "dev"

// NewRootCommand creates the root command for the wizard CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   Name,
		Short: "Resumable flow engine",
		Long: "Validates and runs flows declared in YAML, carrying property " +
			"values between activities and from one flow to the next.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"log level (debug|info|warn|error), overrides LOG_LEVEL")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.Config = cfg

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewWithWriter(
		cmd.ErrOrStderr(), Name, os.Getenv("ENV"), Version, level,
	)
	slog.SetDefault(logger)

	slog.Debug("Configuration loaded",
		slog.String("log_level", cfg.LogLevel),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.Int("redis_db", cfg.Redis.DB),
		slog.String("snapshot_bucket", cfg.SnapshotBucketURL),
		slog.Int("definition_cache_size", cfg.DefinitionCacheSize),
		slog.Int("script_cache_size", cfg.ScriptCacheSize))
	return nil
}

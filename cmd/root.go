// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/internal/config"
	"github.com/xkilldash9x/easel-cli/internal/observability"
)

// NewRootCommand builds a fresh root command with all subcommands attached.
// Each call returns an independent instance so flag state never leaks from
// one execution into the next.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "easel",
		Short: "Easel turns a text prompt into an image by driving a headless browser.",
		Long: `Easel drives a headless browser that loads a browser-only image
generation library, triggers a generation for the given prompt, waits for the
page to report completion and writes the decoded image to disk.`,
		// Version is set at build time. See cmd/version.go.
		Version: Version,
		// Failures surface as a single diagnostic line in Execute; cobra's
		// own error echo and usage dump would duplicate it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before every subcommand: config first, then logging.
			if err := initializeConfig(cfgFile); err != nil {
				return err
			}

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				// Fall back to a minimal logger so the failure is still
				// reported through the normal sink.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "easel-cli"})
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting easel.", zap.String("version", Version))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then $HOME/.easel/config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI under the given signal-aware context. Any failure is
// reported as one diagnostic line on stderr and returned to the caller,
// which owns the process exit code.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		observability.Sync()
	}
	return err
}

// initializeConfig layers defaults, an optional config file and EASEL_*
// environment variables into the global viper instance. Flag overrides are
// bound per command in their PreRunE.
func initializeConfig(cfgFile string) error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".easel"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EASEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars carry the run.
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/api/schemas"
	"github.com/xkilldash9x/easel-cli/internal/browser"
	"github.com/xkilldash9x/easel-cli/internal/config"
	"github.com/xkilldash9x/easel-cli/internal/generation"
	"github.com/xkilldash9x/easel-cli/internal/observability"
)

// newGenerateCmd creates and configures the `generate` command.
func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate <prompt> <outputPath>",
		Short: "Generates an image from a text prompt and writes it to a file",
		Long: `Generate loads the image generation library in a browser page, triggers a
single generation for the prompt and writes the decoded image to outputPath.
Exactly one attempt is made; the browser is terminated on every outcome.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values override
			// the config file and EASEL_* environment variables.
			if err := viper.BindPFlag("generation.model", cmd.Flags().Lookup("model")); err != nil {
				return err
			}
			if err := viper.BindPFlag("generation.timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			visible, err := cmd.Flags().GetBool("visible")
			if err != nil {
				return err
			}
			applyVisibleMode(cfg, visible)

			req := schemas.GenerationRequest{
				Prompt:     args[0],
				OutputPath: args[1],
				Model:      cfg.Generation.Model,
				Visible:    visible,
			}

			logger.Info("Starting generation run.",
				zap.String("model", req.Model),
				zap.String("output_path", req.OutputPath),
				zap.Bool("visible", req.Visible),
			)

			components, err := initializeGenerateComponents(ctx, cfg, logger)
			if err != nil {
				if components != nil {
					components.Shutdown(ctx)
				}
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown(ctx)

			result, err := components.Pipeline.Run(ctx, req)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Generation aborted by signal.")
					return fmt.Errorf("generation aborted by user signal")
				}
				logger.Error("Generation failed.",
					zap.String("category", string(generation.CategoryOf(err))),
					zap.Error(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Image written to %s (%d bytes)\n", req.OutputPath, len(result.Bytes))
			return nil
		},
	}

	generateCmd.Flags().StringP("model", "m", schemas.DefaultModel, "Generator model passed to the in-page driver. (Overrides config/env)")
	generateCmd.Flags().Duration("timeout", 0, "Overall generation timeout. (Overrides config/env)")
	generateCmd.Flags().Bool("visible", false, "Run with a visible browser window, console capture and per-tick status logging.")

	return generateCmd
}

// applyVisibleMode reshapes the browser settings for the debug configuration:
// a real window, console capture and the verbose poll discipline (selected
// via the request's Visible field).
func applyVisibleMode(cfg *config.Config, visible bool) {
	if !visible {
		return
	}
	cfg.Browser.Headless = false
	cfg.Browser.Debug = true
}

// generateComponents holds the initialized services for one invocation.
type generateComponents struct {
	Manager  *browser.Manager
	Pipeline *generation.Pipeline
}

// Shutdown gracefully closes all components.
func (gc *generateComponents) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if gc.Manager != nil {
		if err := gc.Manager.Shutdown(shutdownCtx); err != nil {
			observability.GetLogger().Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}
}

// initializeGenerateComponents handles dependency injection for the
// generation pipeline.
func initializeGenerateComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*generateComponents, error) {
	components := &generateComponents{}

	manager, err := browser.NewManager(ctx, logger, cfg.Browser)
	if err != nil {
		return components, fmt.Errorf("failed to initialize browser manager: %w", err)
	}
	components.Manager = manager

	pipeline, err := generation.NewPipeline(logger, manager, cfg.Generation)
	if err != nil {
		return components, fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	components.Pipeline = pipeline

	return components, nil
}

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/bz888/arena/internal/api"
	"github.com/bz888/arena/internal/arena"
	"github.com/bz888/arena/internal/config"
	"github.com/bz888/arena/internal/logger"
	"github.com/bz888/arena/internal/markdown"
	"github.com/bz888/arena/internal/ui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "arena",
	Short:        "Compare two chat models side by side and vote for the better answer",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	config.Init()
	config.BindFlags(rootCmd.Flags())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ui.Init()
	debugConsole, err := ui.GetDebugConsole()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(config.Dev, config.LogPath, debugConsole); err != nil {
		return err
	}
	localLogger := logger.NewLogger("main")
	defer localLogger.Close()

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: config.ServerURL,
		Timeout: config.Timeout,
	})
	if err != nil {
		return err
	}

	renderer, err := markdown.NewRenderer(config.Style, config.Wrap)
	if err != nil {
		return err
	}

	controller := arena.NewController(ui.View(), client, renderer,
		arena.WithResetDelay(config.ResetDelay),
	)
	defer controller.Close()

	ctx := cmd.Context()
	if err := controller.Open(ctx); err != nil {
		return fmt.Errorf("backend at %s is not reachable: %w", config.ServerURL, err)
	}
	localLogger.Info("Connected to", config.ServerURL)

	return ui.Run(ctx, controller)
}

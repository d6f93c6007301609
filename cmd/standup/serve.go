package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alekspetrov/standup/internal/config"
	"github.com/alekspetrov/standup/internal/dialog"
	"github.com/alekspetrov/standup/internal/gateway"
	"github.com/alekspetrov/standup/internal/logging"
	"github.com/alekspetrov/standup/internal/team"
	"github.com/alekspetrov/standup/internal/tracker"
)

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.standup/config.yaml"
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			store, err := team.NewStore(cfg.Database.Path, team.Options{MaxConns: cfg.Database.MaxConns})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			var app tracker.GitHubApp
			if cfg.GitHub.AppID != "" {
				app, err = tracker.LoadGitHubApp(cfg.GitHub.AppID, cfg.GitHub.PrivateKeyPath)
				if err != nil {
					return err
				}
			}

			processor := dialog.NewProcessor(store, tracker.NewRegistry(app),
				dialog.WithSilenceCue(cfg.TTS.SilenceCue),
				dialog.WithLogger(logging.WithComponent("dialog")))

			server := gateway.NewServer(cfg.Gateway, gateway.NewWebhookHandler(processor))

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to config file")
	return cmd
}

func newInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config already exists at %s", configPath)
			}
			cfg := config.DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to config file")
	return cmd
}

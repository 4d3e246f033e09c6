package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/dashboard"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/config"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/logging"
)

const clearScreen = "\033[H\033[2J"

type clientOptions struct {
	baseURL  string
	deviceID string
}

func (o *clientOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.baseURL, "base-url", "", "API base URL (default from config)")
	cmd.Flags().StringVar(&o.deviceID, "device", "", "device to follow (default: latest reporting bin)")
}

// loadClientConfig loads the config file if present and falls back to
// built-in defaults otherwise, so client commands work without one.
func loadClientConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func (o *clientOptions) complete(cfg *config.Config) {
	if o.baseURL == "" {
		o.baseURL = cfg.Dashboard.BaseURL
	}
	if o.deviceID == "" {
		o.deviceID = cfg.Dashboard.DeviceID
	}
}

func newWatchCommand(ctx context.Context, global *globalOptions) *cobra.Command {
	opts := &clientOptions{}
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live terminal dashboard",
		Long:  fmt.Sprintf("Polls status, history and the registry every %s and redraws the dashboard.", dashboard.PollInterval),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(global.resolveConfigPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			opts.complete(cfg)

			client := dashboard.NewClient(opts.baseURL, cfg.DashboardTimeout())
			poller := dashboard.NewPoller(client, opts.deviceID)
			out := cmd.OutOrStdout()

			if once {
				snap, err := poller.Refresh(ctx)
				if err != nil {
					return err
				}
				return dashboard.Render(out, snap)
			}

			poller.SetLogger(logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging, version))
			poller.Run(ctx, func(s dashboard.Snapshot) {
				io.WriteString(out, clearScreen) //nolint:errcheck // Terminal output
				if err := dashboard.Render(out, s); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "render: %v\n", err)
				}
			})
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&once, "once", false, "render a single snapshot and exit")
	return cmd
}

func newVerifyCommand(ctx context.Context, global *globalOptions) *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Post a simulated reading and read the status back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadClientConfig(global.resolveConfigPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			opts.complete(cfg)

			client := dashboard.NewClient(opts.baseURL, cfg.DashboardTimeout())
			return dashboard.Verify(ctx, client, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "API base URL (default from config)")
	return cmd
}

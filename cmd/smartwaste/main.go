// SmartWaste Core - bin fill-level telemetry backend and dashboard.
//
// The smartwaste binary runs the HTTP API (serve), a terminal dashboard
// that polls it (watch), registry management (registry) and a smoke test
// that posts a simulated reading (verify).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "SMARTWASTE_CONFIG"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(ctx).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
}

func (o *globalOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "",
		fmt.Sprintf("path to config file (default $%s or %s)", configEnvVar, defaultConfigPath))
}

// resolveConfigPath returns the --config flag, then $SMARTWASTE_CONFIG,
// then the default path.
func (o *globalOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return getConfigPath()
}

// getConfigPath returns the configuration file path.
// Uses SMARTWASTE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

func newRootCommand(ctx context.Context) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "smartwaste",
		Short:         "Bin fill-level telemetry backend",
		Long:          "SmartWaste Core ingests fill-level reports from bin sensors, classifies them as EMPTY, HALF or FULL, and serves status, history and the device registry to dashboards.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCommand(ctx, opts),
		newWatchCommand(ctx, opts),
		newVerifyCommand(ctx, opts),
		newRegistryCommand(ctx, opts),
	)
	return cmd
}

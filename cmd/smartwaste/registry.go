package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/dashboard"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
)

// registryOptions are shared by the registry subcommands.
type registryOptions struct {
	baseURL string
}

func (o *registryOptions) client(global *globalOptions) (*dashboard.Client, error) {
	cfg, err := loadClientConfig(global.resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = cfg.Dashboard.BaseURL
	}
	return dashboard.NewClient(baseURL, cfg.DashboardTimeout()), nil
}

func newRegistryCommand(ctx context.Context, global *globalOptions) *cobra.Command {
	opts := &registryOptions{}
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage registered bins",
		Long:  "List, register, edit and delete bins. Discovered devices appear as temp-<deviceId> entries until registered.",
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API base URL (default from config)")

	cmd.AddCommand(
		newRegistryListCommand(ctx, global, opts),
		newRegistryAddCommand(ctx, global, opts),
		newRegistryUpdateCommand(ctx, global, opts),
		newRegistryDeleteCommand(ctx, global, opts),
	)
	return cmd
}

func newRegistryListCommand(ctx context.Context, global *globalOptions, opts *registryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show registered and discovered bins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(global)
			if err != nil {
				return err
			}
			entries, err := client.Registry(ctx)
			if err != nil {
				return err
			}
			return dashboard.RenderRegistry(cmd.OutOrStdout(), entries)
		},
	}
}

func newRegistryAddCommand(ctx context.Context, global *globalOptions, opts *registryOptions) *cobra.Command {
	var in dashboard.Registration
	cmd := &cobra.Command{
		Use:   "add <deviceId|temp-deviceId>",
		Short: "Register a bin",
		Long:  "Registers a bin. Passing a discovered temp-<deviceId> entry registers that device.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(global)
			if err != nil {
				return err
			}
			in.DeviceID = args[0]
			entry, err := client.AddRegistry(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s as %q (id %s)\n", entry.DeviceID, entry.Name, entry.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "friendly name (required)")
	cmd.Flags().StringVar(&in.Details, "details", "", "free-text location or notes")
	cmd.MarkFlagRequired("name") //nolint:errcheck // Flag defined above
	return cmd
}

func newRegistryUpdateCommand(ctx context.Context, global *globalOptions, opts *registryOptions) *cobra.Command {
	var name, details string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a registered bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch dashboard.RegistrationPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("details") {
				patch.Details = &details
			}
			if patch.Name == nil && patch.Details == nil {
				return fmt.Errorf("nothing to update: pass --name and/or --details")
			}

			client, err := opts.client(global)
			if err != nil {
				return err
			}
			entry, err := client.UpdateRegistry(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %q %q\n", entry.ID, entry.Name, entry.Details)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new friendly name")
	cmd.Flags().StringVar(&details, "details", "", "new details")
	return cmd
}

func newRegistryDeleteCommand(ctx context.Context, global *globalOptions, opts *registryOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Unregister a bin, or purge a discovered device's history",
		Long: "Deleting a registered id removes only the registration; its readings are kept and it re-appears as discovered.\n" +
			"Deleting a temp-<deviceId> entry permanently removes every reading of that device.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				prompt := fmt.Sprintf("Unregister bin %s?", id)
				if deviceID, ok := registry.DeviceIDFromSynthetic(id); ok {
					prompt = fmt.Sprintf("Permanently delete all readings of %s?", deviceID)
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			client, err := opts.client(global)
			if err != nil {
				return err
			}
			res, err := client.DeleteRegistry(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d readings deleted)\n", res.Action, res.DeviceID, res.ReadingsDeleted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

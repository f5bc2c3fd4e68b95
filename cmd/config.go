package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fluttercommunity/android-id/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// config commands work without a loadable config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	cmd.AddCommand(newConfigInitCommand(opts), newConfigShowCommand(opts))
	return cmd
}

func newConfigInitCommand(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long:  "Write a config file with the default settings. The format follows the extension: .toml writes TOML, anything else JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.WriteConfigFile(path, config.DefaultConfig()); err != nil {
				return err
			}
			printf(cmd, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after env and flag overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, warnings, err := config.InitConfigManager(opts.configPath, opts.envFile, opts.overrides(cmd)...)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			cfg := cm.GetConfig()
			data, err := config.Marshal(&cfg, format)
			if err != nil {
				return err
			}
			printf(cmd, "%s", data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or toml")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fluttercommunity/android-id/internal/channel"
	"github.com/fluttercommunity/android-id/internal/device"
	"github.com/fluttercommunity/android-id/internal/emulator"
	"github.com/fluttercommunity/android-id/internal/plugin"
	"github.com/spf13/cobra"
)

func newIDCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the Android ID, or null when none is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := e.comps.IDs.GetID(cmd.Context())
			if err != nil {
				return err
			}
			if id == "" {
				id = "null"
			}
			printf(cmd, "%s\n", id)
			return nil
		},
	}
}

func newEmulatorCommand(e *env) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "emulator",
		Short: "Report whether the device is an emulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !explain {
				emu, err := e.comps.Detector.IsEmulator(cmd.Context())
				if err != nil {
					return err
				}
				printf(cmd, "%t\n", emu)
				return nil
			}

			report, err := e.comps.Detector.Detect(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd, "%t\n", report.Emulator)
			for _, m := range report.Matches {
				printf(cmd, "  %s: %s\n", m.Platform, m.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "list every signature and probe file that matched")
	return cmd
}

func newInfoCommand(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the device properties used for detection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := e.comps.Source.Properties(cmd.Context())
			if err != nil {
				return err
			}
			data, err := encodeInfo(device.Info(props), output)
			if err != nil {
				return err
			}
			printf(cmd, "%s", data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or toml")
	return cmd
}

func encodeInfo(info map[string]interface{}, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "toml":
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(info); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q: use json or toml", format)
	}
}

func newFilesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the emulator probe files present on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range e.comps.Detector.ExistingFiles(cmd.Context(), emulator.ProbePaths()) {
				printf(cmd, "%s\n", f)
			}
			return nil
		},
	}
}

func newCallCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [json-args]",
		Short: "Invoke a method on the android_id channel and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var callArgs interface{}
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("arguments must be valid JSON")
				}
				callArgs = json.RawMessage(args[1])
			}

			registry := channel.NewRegistry()
			p := plugin.New(e.comps.IDs, e.comps.Detector, e.log)
			p.OnAttachedToEngine(plugin.Binding{Messenger: registry})
			defer p.OnDetachedFromEngine()

			ch := channel.NewMethodChannel(registry, plugin.ChannelName, nil)
			result, err := ch.InvokeMethod(cmd.Context(), args[0], callArgs)
			if errors.Is(err, channel.ErrNotImplemented) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", result)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/fluttercommunity/android-id/internal/shell"
	"github.com/fluttercommunity/android-id/internal/utils"
	"github.com/fluttercommunity/android-id/pkg/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	envFile    string
	adb        bool
	serial     string
	logLevel   string
	jsonLog    bool
	listen     string
	noProbe    bool

	// executor replaces the configured local or adb executor when set
	executor shell.Executor
}

// env is what every device command works with once config is loaded.
type env struct {
	cm    *config.ConfigManager
	log   *zerolog.Logger
	comps *utils.Components
	audit io.Closer
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           "android-id",
		Short:         "Read the Android ID and detect emulators on an Android device",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./config.* or the user config dir)")
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before the config")
	flags.BoolVar(&opts.adb, "adb", false, "run device commands through adb")
	flags.StringVarP(&opts.serial, "serial", "s", "", "adb device serial (implies --adb)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.jsonLog, "json-log", false, "log JSON lines instead of console output")

	rootCmd.AddCommand(
		newIDCommand(e),
		newEmulatorCommand(e),
		newInfoCommand(e),
		newFilesCommand(e),
		newCallCommand(e),
		newServeCommand(e, opts),
		newConfigCommand(opts),
	)
	return rootCmd
}

// overrides turns the command-line flags into config overrides.
func (o *options) overrides(cmd *cobra.Command) []config.Override {
	var out []config.Override
	if o.logLevel != "" {
		out = append(out, config.SetLogLevel(o.logLevel))
	}
	if cmd.Flags().Changed("json-log") {
		out = append(out, config.SetJSONLogging(o.jsonLog))
	}
	if o.listen != "" {
		out = append(out, config.SetListenAddr(o.listen))
	}
	if o.noProbe {
		out = append(out, config.SetProbeDisabled(true))
	}
	if o.adb || o.serial != "" {
		out = append(out, config.UseADB(o.serial))
	}
	return out
}

func (e *env) init(cmd *cobra.Command, opts *options) error {
	cm, warnings, err := config.InitConfigManager(opts.configPath, opts.envFile, opts.overrides(cmd)...)
	if err != nil {
		return err
	}

	ctx, log := logger.InitLogger(cmd.Context(), cm.GetLogLevel(), cm.IsJSONLog(), warnings)
	cmd.SetContext(ctx)

	audit, err := utils.InitAuditLogger(cm, log)
	if err != nil {
		return err
	}
	e.audit = audit

	exec := opts.executor
	if exec == nil {
		exec = utils.NewExecutor(cm)
	}

	e.cm = cm
	e.log = log
	e.comps = utils.BuildComponents(cm, exec)

	log.Debug().
		Str("mode", cm.GetDeviceMode()).
		Str("config", cm.ConfigPath()).
		Msg("Configuration loaded")
	return nil
}

// close releases the audit log. It runs after every device command; run also
// calls it so a failing command does not leak the file.
func (e *env) close() error {
	if e.audit == nil {
		return nil
	}
	err := e.audit.Close()
	e.audit = nil
	return err
}

func printf(cmd *cobra.Command, format string, a ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}

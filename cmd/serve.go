package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fluttercommunity/android-id/internal/channel"
	"github.com/fluttercommunity/android-id/internal/hotreload"
	"github.com/fluttercommunity/android-id/internal/plugin"
	"github.com/fluttercommunity/android-id/internal/probe"
	"github.com/fluttercommunity/android-id/internal/scheduler"
	"github.com/fluttercommunity/android-id/internal/server"
	bridgetls "github.com/fluttercommunity/android-id/internal/tls"
	"github.com/fluttercommunity/android-id/internal/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const schedulerStopTimeout = 10 * time.Second

func newServeCommand(e *env, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the android_id channel over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address, overrides server.listen_addr")
	cmd.Flags().BoolVar(&opts.noProbe, "no-probe", false, "disable the periodic emulator probe")
	return cmd
}

func serve(ctx context.Context, e *env) error {
	log := e.log
	g, ctx := errgroup.WithContext(ctx)

	registry := channel.NewRegistry()
	p := plugin.New(e.comps.IDs, e.comps.Detector, log)
	p.OnAttachedToEngine(plugin.Binding{Messenger: registry})
	defer p.OnDetachedFromEngine()

	prefix := e.cm.GetPathPrefix()
	registrars := []server.RouteRegistrar{
		server.NewHealthRegistrar(registry, plugin.ChannelName),
		&server.MetricsRegistrar{},
		server.NewChannelRegistrar(prefix, registry),
		server.NewChannelSocketRegistrar(prefix, registry),
		server.NewDeviceRegistrar(prefix, e.comps.Source, e.comps.Detector),
	}
	if e.cm.IsPprofEnabled() {
		registrars = append(registrars, &server.DebugRegistrar{})
	}

	router := server.NewDefaultRouter("")
	router.Use(server.LoggingMiddleware(log))
	app := server.NewApp(e.cm.GetListenAddr(), router, log, registrars...)
	if tlsCfg := e.cm.GetTLSConfig(); tlsCfg.Enabled() {
		files := bridgetls.ServerFiles{
			CertFile:     tlsCfg.CertFile,
			KeyFile:      tlsCfg.KeyFile,
			ClientCAFile: tlsCfg.ClientCAFile,
		}
		serverTLS, err := bridgetls.LoadServerTLSConfig(files)
		if err != nil {
			return fmt.Errorf("load server TLS: %w", err)
		}
		if left, err := bridgetls.ExpiresIn(files.CertFile); err == nil {
			log.Info().Dur("expires_in", left).Bool("mtls", files.ClientCAFile != "").Msg("TLS enabled")
		}
		app.WithTLS(serverTLS)
	}
	app.SetupRoutes()
	app.SetupServer(ctx, g)

	var probeScheduler *scheduler.Scheduler
	var resetter hotreload.IntervalResetter
	if e.cm.IsProbeDisabled() {
		log.Info().Msg("Emulator probe disabled")
	} else {
		metrics, err := probe.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		probeScheduler, err = scheduler.NewSchedulerWithInterval(e.cm.GetProbeInterval(), probe.New(e.comps.Detector, metrics, log), log)
		if err != nil {
			return err
		}
		probeScheduler.Start(ctx)
		resetter = probeScheduler
	}

	if path := e.cm.ConfigPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			events := make(chan struct{}, 1)
			hrm := hotreload.NewHotReloadManager(e.cm, log, resetter)
			g.Go(func() error {
				return watcher.WatchChanges(ctx, *log, path, events)
			})
			g.Go(func() error {
				return hrm.Run(ctx, events)
			})
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Config file not watched")
		}
	}

	err := g.Wait()

	if probeScheduler != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
		defer cancel()
		if stopErr := probeScheduler.Stop(stopCtx); stopErr != nil {
			log.Warn().Err(stopErr).Msg("Emulator probe did not stop in time")
		}
	}

	return err
}

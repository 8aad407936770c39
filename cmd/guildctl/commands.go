package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/danmuck/guildwire/internal/config"
	"github.com/danmuck/guildwire/internal/conn"
	"github.com/danmuck/guildwire/internal/guild"
	"github.com/danmuck/guildwire/internal/logging"
	"github.com/danmuck/guildwire/internal/observability"
	"github.com/danmuck/guildwire/internal/protocol/frame"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "guildctl",
		Short:         "Replay guild events as legacy client frames",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "guildctl TOML config")

	load := func() (appConfig, error) {
		cfg, err := loadAppConfig(configPath)
		if err != nil {
			return appConfig{}, err
		}
		logging.ConfigureWith(cfg.Log)
		return cfg, nil
	}

	root.AddCommand(newReplayCmd(load), newListenCmd(load), newValidateCmd(load), newInspectCmd(), newInitCmd())
	return root
}

func newReplayCmd(load func() (appConfig, error)) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Send every event of a script through the configured sink",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			script, err := config.LoadScript(scriptPath)
			if err != nil {
				return err
			}
			return runWithMetrics(cmd.Context(), cfg, func(ctx context.Context) error {
				return replay(ctx, cfg, script, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "event script TOML")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func replay(ctx context.Context, cfg appConfig, script config.Script, stdout io.Writer) error {
	logger := logging.Logger("replay").With().Str("node", cfg.Node).Str("script", script.Name).Logger()
	sink, err := openSink(ctx, cfg, stdout, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	n := guild.NewNotifier(sink, guild.WithLogger(logger))
	for i, e := range script.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Apply(n); err != nil {
			return fmt.Errorf("event[%d] %s: %w", i, e.Op, err)
		}
	}
	logger.Info().Int("events", len(script.Events)).Str("transport", cfg.Sink.Transport).Msg("script replayed")
	return nil
}

func newListenCmd(load func() (appConfig, error)) *cobra.Command {
	var certFile, keyFile string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Decode frames arriving on the configured transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runWithMetrics(cmd.Context(), cfg, func(ctx context.Context) error {
				return listen(ctx, cfg, certFile, keyFile, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&certFile, "cert", "", "TLS certificate for quic")
	cmd.Flags().StringVar(&keyFile, "key", "", "TLS key for quic")
	return cmd
}

func listen(ctx context.Context, cfg appConfig, certFile, keyFile string, out io.Writer) error {
	logger := logging.Logger("listen").With().Str("node", cfg.Node).Logger()
	limits := frame.DefaultLimits()
	handle := func(peer string, f frame.Frame) error {
		_, err := fmt.Fprintln(out, describe(peer, f))
		return err
	}

	logger.Info().Str("transport", cfg.Sink.Transport).Str("addr", cfg.Sink.Addr).Msg("listening")
	switch cfg.Sink.Transport {
	case transportTCP:
		ln, err := net.Listen("tcp", cfg.Sink.Addr)
		if err != nil {
			return fmt.Errorf("listen tcp: %w", err)
		}
		return conn.ServeTCP(ctx, ln, limits, handle, logger)
	case transportQUIC:
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("load quic certificate: %w", err)
		}
		ln, err := conn.ListenQUIC(cfg.Sink.Addr, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		})
		if err != nil {
			return err
		}
		defer ln.Close()
		return conn.ServeQUIC(ctx, ln, limits, handle, logger)
	case transportWebSocket:
		srv := &http.Server{Addr: cfg.Sink.Addr, Handler: conn.WebSocketHandler(limits, handle, logger)}
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen websocket: %w", err)
		}
		return nil
	case transportRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Sink.Addr, DialTimeout: cfg.Sink.DialTimeout})
		defer rdb.Close()
		return conn.SubscribeFrames(ctx, rdb, cfg.Sink.Channel, handle, logger)
	default:
		return fmt.Errorf("%w: cannot listen on %q", errInvalidConfig, cfg.Sink.Transport)
	}
}

func newValidateCmd(load func() (appConfig, error)) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the config and, if given, an event script",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("config ok: node=%s transport=%s", cfg.Node, cfg.Sink.Transport)
			if scriptPath != "" {
				script, err := config.LoadScript(scriptPath)
				if err != nil {
					return err
				}
				msg += fmt.Sprintf(" script=%s events=%d", script.Name, len(script.Events))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "event script TOML")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <hex>...",
		Short: "Decode one frame given as hex",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := inspect(args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		},
	}
}

func inspect(args []string) (string, error) {
	raw, err := config.DecodeHex(strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	f, err := frame.Decode(raw)
	if err != nil {
		return "", err
	}
	return describe("", f), nil
}

func describe(peer string, f frame.Frame) string {
	prefix := ""
	if peer != "" {
		prefix = peer + " "
	}
	return fmt.Sprintf("%smarker=%02X length=%d code=%02X body=% X", prefix, f.Marker, f.Length, f.Code, f.Body)
}

func newInitCmd() *cobra.Command {
	var kind, out string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config or script template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteTemplate(out, kind, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s template to %s\n", kind, out)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "guildctl", "template kind: guildctl or script")
	cmd.Flags().StringVarP(&out, "out", "o", "guildctl.toml", "output path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// runWithMetrics runs fn alongside the metrics endpoint when it is enabled.
// The endpoint stops once fn returns.
func runWithMetrics(ctx context.Context, cfg appConfig, fn func(context.Context) error) error {
	if !cfg.Metrics.Enabled {
		return fn(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(gctx)
	g.Go(func() error {
		return observability.Serve(metricsCtx, cfg.Metrics.Addr)
	})
	g.Go(func() error {
		defer stopMetrics()
		return fn(gctx)
	})
	logger := logging.Logger("metrics")
	logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint enabled")
	return g.Wait()
}

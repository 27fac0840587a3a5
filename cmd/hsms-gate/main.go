// Command hsms-gate listens for HSMS equipment connections and logs every
// decoded message. It is a thin demonstration harness around package gate;
// real deployments wire gate.Handler into whatever reply-correlation and
// session-management layer they maintain (explicitly out of scope here,
// per the decoder's own non-goals).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hsms-go/hsms/internal/gate"
	"github.com/hsms-go/hsms/internal/hsms"
	"github.com/hsms-go/hsms/internal/logger"
)

var (
	listenAddr        string
	metricsAddr       string
	initialBufferSize int
	logLevel          string
	logFile           string
)

func main() {
	root := &cobra.Command{
		Use:     "hsms-gate",
		Short:   "HSMS/SECS-II streaming decoder gate",
		Example: "hsms-gate --listen :5000 --metrics-addr :9090 --log-level debug",
		RunE:    run,
	}
	root.Flags().StringVar(&listenAddr, "listen", ":5000", "TCP address to accept equipment connections on")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve Prometheus metrics on (empty disables)")
	root.Flags().IntVar(&initialBufferSize, "initial-buffer-size", 4096, "initial per-connection receive buffer size in bytes")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.Flags().StringVar(&logFile, "log-file", "", "rotated log file path (empty logs to stdout)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loggingHandler struct {
	log *zap.Logger
}

func (h *loggingHandler) OnControlMessage(connID string, header hsms.Header) {
	logger.WithMessage(logger.WithConn(h.log, connID, ""), header.MessageType.String(), header.DeviceID, header.S, header.F, header.SystemBytes).
		Info("control message")
}

func (h *loggingHandler) OnDataMessage(connID string, header hsms.Header, msg hsms.Message) {
	l := logger.WithMessage(logger.WithConn(h.log, connID, ""), header.MessageType.String(), header.DeviceID, header.S, header.F, header.SystemBytes)
	if !msg.HasRoot {
		l.Info("data message", zap.Bool("has_root", false))
		return
	}
	l.Info("data message", zap.Bool("has_root", true), zap.Int("root_children", msg.Root.Len()))
}

func run(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{
		Stdout:     logFile == "",
		Level:      logLevel,
		Filename:   logFile,
		MaxSizeMB:  100,
		MaxAgeDays: 28,
		MaxBackups: 5,
	})
	log := logger.L().With(zap.String("component", "cli"))

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer metricsSrv.Close()
		log.Info("metrics listening", zap.String("addr", metricsAddr))
	}

	g := gate.New(gate.Config{
		ListenAddr:        listenAddr,
		InitialBufferSize: initialBufferSize,
	}, &loggingHandler{log: log})

	if err := g.Start(); err != nil {
		return fmt.Errorf("start gate: %w", err)
	}
	log.Info("hsms-gate started", zap.Stringer("addr", g.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.Stop(shutdownCtx); err != nil {
		log.Error("gate stop error", zap.Error(err))
		return err
	}
	log.Info("hsms-gate stopped cleanly")
	return nil
}

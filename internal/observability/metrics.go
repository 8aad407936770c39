package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildwire",
			Subsystem: "conn",
			Name:      "frames_sent_total",
			Help:      "Frames handed to a connection sink.",
		},
		[]string{"node", "code", "marker"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildwire",
			Subsystem: "conn",
			Name:      "frame_bytes_total",
			Help:      "Bytes of frames handed to a connection sink.",
		},
		[]string{"node", "code"},
	)
	sendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guildwire",
			Subsystem: "conn",
			Name:      "send_failures_total",
			Help:      "Frames a connection sink failed to deliver.",
		},
		[]string{"node", "code"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesSent, frameBytes, sendFailures)
	})
}

// RecordFrame counts one send attempt. code and marker come from the frame
// header; a non-frame buffer gets "raw" for both labels.
func RecordFrame(node string, marker, code uint8, size int, success bool) {
	RegisterMetrics()
	mLabel := markerLabel(marker)
	cLabel := "raw"
	if mLabel != "raw" {
		cLabel = "0x" + strconv.FormatUint(uint64(code), 16)
	}
	if !success {
		sendFailures.WithLabelValues(node, cLabel).Inc()
		return
	}
	framesSent.WithLabelValues(node, cLabel, mLabel).Inc()
	frameBytes.WithLabelValues(node, cLabel).Add(float64(size))
}

func markerLabel(marker uint8) string {
	switch marker {
	case 0xC1:
		return "c1"
	case 0xC2:
		return "c2"
	default:
		return "raw"
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done or the server fails.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}

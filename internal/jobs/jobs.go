// Package jobs runs the server's background housekeeping tasks: a keep-alive
// self-ping, periodic memory reports, and an hourly status line.
package jobs

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/guthaVamshi/ExpenseTracker/internal/log"
)

type Runner struct {
	logger  *log.Logger
	client  *http.Client
	pingURL string
	started time.Time

	keepAliveInterval    time.Duration
	memoryReportInterval time.Duration
	statusLogInterval    time.Duration
}

func NewRunner(logger *log.Logger, port string, keepAlive, memoryReport, statusLog time.Duration) *Runner {
	return &Runner{
		logger:               logger.WithComponent(log.ComponentJobs),
		client:               &http.Client{Timeout: 10 * time.Second},
		pingURL:              fmt.Sprintf("http://localhost:%s/health", port),
		started:              time.Now(),
		keepAliveInterval:    keepAlive,
		memoryReportInterval: memoryReport,
		statusLogInterval:    statusLog,
	}
}

// RunKeepAlive pings the local health endpoint on a fixed interval so
// free-tier hosts don't idle the instance out.
func (r *Runner) RunKeepAlive(ctx context.Context) error {
	ticker := time.NewTicker(r.keepAliveInterval)
	defer ticker.Stop()

	r.logger.Info("Keep-alive job started", "url", r.pingURL, "interval", r.keepAliveInterval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Keep-alive job stopped")
			return nil
		case <-ticker.C:
			r.ping(ctx)
		}
	}
}

func (r *Runner) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pingURL, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "Keep-alive request build failed", log.FieldError, err)
		return
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "Keep-alive ping failed", log.FieldError, err)
		return
	}
	resp.Body.Close()

	r.logger.DebugContext(ctx, "Keep-alive ping sent", log.FieldStatusCode, resp.StatusCode)
}

// RunMemoryReport logs heap statistics and nudges the collector on a fixed
// interval.
func (r *Runner) RunMemoryReport(ctx context.Context) error {
	ticker := time.NewTicker(r.memoryReportInterval)
	defer ticker.Stop()

	r.logger.Info("Memory report job started", "interval", r.memoryReportInterval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Memory report job stopped")
			return nil
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			r.logger.InfoContext(ctx, "Memory report",
				"heap_alloc_mb", m.HeapAlloc/1024/1024,
				"heap_sys_mb", m.HeapSys/1024/1024,
				"num_gc", m.NumGC,
				"goroutines", runtime.NumGoroutine())
			runtime.GC()
		}
	}
}

// RunStatusLog writes a heartbeat line with uptime on a fixed interval.
func (r *Runner) RunStatusLog(ctx context.Context) error {
	ticker := time.NewTicker(r.statusLogInterval)
	defer ticker.Stop()

	r.logger.Info("Status log job started", "interval", r.statusLogInterval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Status log job stopped")
			return nil
		case <-ticker.C:
			r.logger.InfoContext(ctx, "Service status",
				"status", "running",
				"uptime", time.Since(r.started).Round(time.Second).String())
		}
	}
}

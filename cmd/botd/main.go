package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/cli"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/config"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/svc"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

const (
	sweepInterval   = time.Minute     // expired session reclaim interval
	reportInterval  = 5 * time.Minute // metrics snapshot interval
	sweepTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

var configFile = flag.String("f", "etc/botd.yaml", "the config file")

func main() {
	flag.Parse()

	appCfg := config.MustLoad(*configFile)
	appCfg.MustSetUp()
	defer logx.Close()

	cli.LogConfigSummary(appCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx := svc.NewServiceContext(*appCfg)
	if svcCtx.Engine == nil {
		log.Fatalf("[main] Postgres is required to run the trade worker")
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSessionSweeper(ctx, svcCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runMetricsReporter(ctx, svcCtx)
	}()

	logx.Info("botd started")

	<-ctx.Done()
	logx.Info("shutdown signal received, stopping tasks")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("all tasks stopped cleanly")
	case <-shutdownCtx.Done():
		logx.Error("shutdown timeout exceeded, forcing exit")
	}
}

// runSessionSweeper reclaims expired conversation rows on a schedule. Reads
// already treat expired rows as absent; the sweep only keeps the table small.
func runSessionSweeper(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sweepSessions(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("stopping session sweeper")
			return
		case <-ticker.C:
			sweepSessions(ctx, svcCtx)
		}
	}
}

func sweepSessions(parentCtx context.Context, svcCtx *svc.ServiceContext) {
	if parentCtx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parentCtx, sweepTimeout)
	defer cancel()

	removed, err := svcCtx.SessionsModel.DeleteExpired(ctx, time.Now())
	if err != nil {
		logx.WithContext(ctx).Errorf("session sweep: %v", err)
		return
	}
	if removed > 0 {
		logx.WithContext(ctx).Infof("session sweep removed %d expired rows", removed)
	}
}

// runMetricsReporter logs per-mode trade counters on a schedule.
func runMetricsReporter(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("stopping metrics reporter")
			return
		case <-ticker.C:
			for _, mode := range []policy.Mode{policy.ModeNormal, policy.ModeTurbo} {
				stats := svcCtx.Metrics.Snapshot(mode)
				if stats.Total == 0 {
					continue
				}
				logx.Infof("trade stats mode=%s total=%d success=%d failure=%d avg_latency_ms=%.0f",
					mode, stats.Total, stats.Successes, stats.Failures, stats.AvgLatencyMs)
			}
		}
	}
}

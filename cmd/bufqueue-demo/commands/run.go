package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vellumgfx/bufferqueue"
	"github.com/vellumgfx/bufferqueue/allocator"
	"github.com/vellumgfx/bufferqueue/config"
	"github.com/vellumgfx/bufferqueue/consumer"
	"github.com/vellumgfx/bufferqueue/debugapi"
	"github.com/vellumgfx/bufferqueue/fence"
	"github.com/vellumgfx/bufferqueue/internal/logger"
	"github.com/vellumgfx/bufferqueue/internal/telemetry"
	"github.com/vellumgfx/bufferqueue/metrics"
	"github.com/vellumgfx/bufferqueue/producer"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a producer/consumer pair against a BufferQueue",
	Long: `run builds a BufferQueue from the loaded configuration, connects an
in-process producer and consumer, and drives a request/flush/acquire/release
loop on a timer until interrupted, exposing the queue's live state through
the debug API.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 200*time.Millisecond, "interval between produced frames")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg, cfg.Metrics.Enabled)

	alloc := allocator.New()

	queue := bufferqueue.New(cfg.Queue.ID,
		bufferqueue.WithAllocator(alloc),
		bufferqueue.WithTracer(telemetry.NewQueueTracer()),
		bufferqueue.WithMetrics(recorder),
		bufferqueue.WithQueueSize(cfg.Queue.Size),
		bufferqueue.WithMaxQueueSize(cfg.Queue.MaxSize),
		bufferqueue.WithNonBlockingMode(cfg.Queue.NonBlocking),
		bufferqueue.WithDropFrameLevel(cfg.Queue.DropFrameLevel),
	)

	prod := producer.New(queue)
	cons := consumer.New(queue)

	const producerPid = 1
	if err := prod.Connect(ctx, producerPid); err != nil {
		return err
	}

	var debugSrv *debugapi.Server
	if cfg.DebugAPI.Enabled {
		debugSrv = debugapi.NewServer(debugapi.Config{
			Port:         cfg.DebugAPI.Port,
			ReadTimeout:  cfg.DebugAPI.ReadTimeout,
			WriteTimeout: cfg.DebugAPI.WriteTimeout,
			IdleTimeout:  cfg.DebugAPI.IdleTimeout,
		}, queue, reg)

		go func() {
			if err := debugSrv.Start(ctx); err != nil {
				logger.ErrorCtx(ctx, "debug API exited", logger.Err(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(runInterval)
	defer ticker.Stop()

	bufCfg := bufferqueue.Config{
		Width:           1920,
		Height:          1080,
		StrideAlignment: 64,
		Format:          bufferqueue.FormatRGBA8888,
		Usage:           0,
		TimeoutMS:       500,
	}

	logger.InfoCtx(ctx, "bufqueue-demo running", logger.QueueID(cfg.Queue.ID), logger.QueueSize(cfg.Queue.Size))

	for {
		select {
		case <-sigCh:
			logger.InfoCtx(ctx, "shutting down", logger.Op("run.signal"))
			cancel()
			return shutdown(debugSrv, cfg.ShutdownTimeout)
		case <-ctx.Done():
			return shutdown(debugSrv, cfg.ShutdownTimeout)
		case <-ticker.C:
			if err := driveOneFrame(ctx, prod, cons, bufCfg); err != nil {
				logger.WarnCtx(ctx, "frame cycle failed", logger.Err(err))
			}
		}
	}
}

// driveOneFrame runs one request/flush/acquire/release cycle, the minimal
// loop spec.md §4.1's four core operations compose into.
func driveOneFrame(ctx context.Context, prod *producer.Producer, cons *consumer.Consumer, cfg bufferqueue.Config) error {
	reqResult, err := prod.RequestBuffer(ctx, cfg, nil)
	if err != nil {
		return err
	}

	flushFence := fence.New(fence.OriginProducer).Signal(time.Now())
	if err := prod.Flush(ctx, reqResult.Sequence, nil, flushFence, bufferqueue.FlushConfig{}); err != nil {
		return err
	}

	acq, err := cons.AcquireBuffer(ctx)
	if err != nil {
		return err
	}

	releaseFence := fence.New(fence.OriginConsumer).Signal(time.Now())
	return cons.ReleaseBuffer(ctx, acq.Sequence, releaseFence)
}

func shutdown(debugSrv *debugapi.Server, timeout time.Duration) error {
	if debugSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return debugSrv.Stop(ctx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-diskann/diskann/pkg/config"
	"github.com/go-diskann/diskann/pkg/observability"
	"github.com/go-diskann/diskann/pkg/streaming"
)

func main() {
	cfg := config.Default()

	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		metricsAddr = flag.String("metrics_addr", "", "address to serve Prometheus metrics on (empty disables)")
	)

	flag.StringVar(&cfg.DataType, "data_type", "", "int8, uint8, or float (required)")
	flag.StringVar(&cfg.DistFn, "dist_fn", cfg.DistFn, "l2 or mips")
	flag.StringVar(&cfg.DataPath, "data_path", "", "path to the base vector bin file (required)")
	flag.StringVar(&cfg.IndexPathPrefix, "index_path_prefix", "", "prefix logged as the would-be save path (required)")
	flag.Uint64Var(&cfg.ActiveWindow, "active_window", 0, "number of points kept live in the index at once (required)")
	flag.Uint64Var(&cfg.ConsolidateInterval, "consolidate_interval", 0, "number of points inserted between consolidation passes (required)")
	flag.Uint64Var(&cfg.MaxPointsToInsert, "max_points_to_insert", 0, "total points to stream; 0 means every point in the file")
	flag.Var(float32Flag{&cfg.StartPointNorm}, "start_point_norm", "L2 norm frozen start points are scaled to")
	flag.Var(uint32Flag{&cfg.MaxDegree}, "max_degree", "maximum out-degree of any node (R)")
	flag.Var(uint32Flag{&cfg.MaxDegree}, "R", "alias for -max_degree")
	flag.Var(uint32Flag{&cfg.Lbuild}, "Lbuild", "build-time search beam width (L)")
	flag.Var(float32Flag{&cfg.Alpha}, "alpha", "RobustPrune diversification factor")
	flag.Var(uint32Flag{&cfg.InsertThreads}, "insert_threads", "worker pool size for inserts")
	flag.Var(uint32Flag{&cfg.ConsolidateThreads}, "consolidate_threads", "worker pool size for consolidation rewiring")
	flag.Var(uint32Flag{&cfg.NumStartPts}, "num_start_points", "number of frozen entry points")
	flag.StringVar(&cfg.LabelFile, "label_file", "", "path to a label file (enables filtered search, disables lazy delete)")
	flag.StringVar(&cfg.UniversalLabel, "universal_label", "", "label value that matches every filter")
	flag.StringVar(&cfg.LabelType, "label_type", cfg.LabelType, "ushort or uint")
	flag.Var(uint32Flag{&cfg.FilteredLbuild}, "FilteredLbuild", "secondary beam width used to seed filtered insertion")
	flag.Parse()

	if *showVersion {
		fmt.Println("diskann-streaming v0.1.0")
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(-1)
	}

	logger := observability.NewDefaultLogger()
	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics()
		go serveMetrics(*metricsAddr, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn(fmt.Sprintf("received signal %v, stopping after the current phase", sig))
		cancel()
	}()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		log.Printf("streaming run failed: %v", err)
		os.Exit(-1)
	}
}

func run(ctx context.Context, cfg *config.StreamingConfig, logger *observability.Logger, metrics *observability.Metrics) error {
	switch cfg.DataType {
	case "float":
		return runTyped[float32](ctx, cfg, logger, metrics)
	case "int8":
		return runTyped[int8](ctx, cfg, logger, metrics)
	case "uint8":
		return runTyped[uint8](ctx, cfg, logger, metrics)
	default:
		return fmt.Errorf("unsupported data_type %q", cfg.DataType)
	}
}

func runTyped[T streaming.Number](ctx context.Context, cfg *config.StreamingConfig, logger *observability.Logger, metrics *observability.Metrics) error {
	ctrl, err := streaming.New[T](cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("building controller: %w", err)
	}

	logger.Info(fmt.Sprintf("streaming %d points: active_window=%d consolidate_interval=%d",
		cfg.MaxPointsToInsert, cfg.ActiveWindow, cfg.ConsolidateInterval))

	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("streaming run complete, index size %d (would save to %s)",
		ctrl.Index().Size(), ctrl.SavePathHint()))
	return nil
}

func serveMetrics(addr string, logger *observability.Logger) {
	logger.Info(fmt.Sprintf("serving metrics on %s/metrics", addr))
	if err := observability.ServeMetrics(addr); err != nil {
		logger.Warn(fmt.Sprintf("metrics server stopped: %v", err))
	}
}

type uint32Flag struct{ dst *uint32 }

func (f uint32Flag) String() string {
	if f.dst == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *f.dst)
}

func (f uint32Flag) Set(s string) error {
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return err
	}
	*f.dst = v
	return nil
}

type float32Flag struct{ dst *float32 }

func (f float32Flag) String() string {
	if f.dst == nil {
		return "0"
	}
	return fmt.Sprintf("%g", *f.dst)
}

func (f float32Flag) Set(s string) error {
	var v float32
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return err
	}
	*f.dst = v
	return nil
}

// Package streaming drives an Index through a sliding window over a
// vector file: an initial active-window insert, then repeated
// (insert consolidate_interval points) phases each followed by a
// background lazy-delete-and-consolidate pass over the window that
// just slid out of range. At most one background pass is ever
// outstanding; the driver waits for it before starting the next one,
// and waits for the last one before returning.
package streaming

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/go-diskann/diskann/internal/distance"
	"github.com/go-diskann/diskann/internal/vectorfile"
	"github.com/go-diskann/diskann/pkg/config"
	"github.com/go-diskann/diskann/pkg/diskann"
	"github.com/go-diskann/diskann/pkg/observability"
)

// Number is the set of element types a Controller can stream.
type Number = diskann.Number

// Controller owns one Index and drives it through a streaming run
// over vectors of element type T.
type Controller[T diskann.Number] struct {
	cfg *config.StreamingConfig

	dim    int
	npts   int
	labels [][]uint32

	mips        bool
	mipsMaxNorm float32

	idx *diskann.Index[T]

	logger  *observability.Logger
	metrics *observability.Metrics

	// retryGate paces the unbounded LOCK_FAIL/INCONSISTENT_COUNT retry
	// loop in consolidateWithRetry, replacing the reference driver's
	// bare five-second sleep.
	retryGate *rate.Limiter

	pending    chan error // at most one outstanding background task
	hasPending bool
}

// New builds a Controller and its Index, reading the data file's
// metadata to determine vector dimension and validating cfg's
// streaming preconditions.
func New[T diskann.Number](cfg *config.StreamingConfig, logger *observability.Logger, metrics *observability.Metrics) (*Controller[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	npts, dim, err := vectorfile.Metadata(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("reading data file metadata: %w", err)
	}

	maxPoints := cfg.MaxPointsToInsert
	if maxPoints == 0 {
		maxPoints = uint64(npts)
	}
	if uint64(npts) < maxPoints {
		return nil, fmt.Errorf("num_points(%d) < max_points_to_insert(%d)", npts, maxPoints)
	}

	var labels [][]uint32
	hasLabels := cfg.LabelFile != ""
	if hasLabels {
		formatted := cfg.IndexPathPrefix + "_label_formatted.txt"
		labelMap := cfg.IndexPathPrefix + "_labels_map.txt"
		if _, err := vectorfile.ConvertLabelsStringToInt(cfg.LabelFile, formatted, labelMap, cfg.UniversalLabel); err != nil {
			return nil, fmt.Errorf("converting label file: %w", err)
		}
		labels, err = vectorfile.ParseFormattedLabelFile(formatted)
		if err != nil {
			return nil, fmt.Errorf("parsing formatted label file: %w", err)
		}
	}

	distKind, ok := distance.ParseKind(cfg.DistFn)
	if !ok {
		return nil, fmt.Errorf("invalid dist_fn %q", cfg.DistFn)
	}

	indexDim := dim
	var maxNorm float32
	mips := distKind == distance.MIPS
	if mips {
		maxNorm, err = vectorfile.MaxNorm(cfg.DataPath, int(maxPoints))
		if err != nil {
			return nil, fmt.Errorf("computing max base norm for mips: %w", err)
		}
		indexDim = dim + 1
	}

	idxCfg := diskann.Config{
		Dim:            indexDim,
		Capacity:       int(cfg.Capacity()),
		R:              int(cfg.MaxDegree),
		L:              int(cfg.Lbuild),
		Alpha:          float64(cfg.Alpha),
		MaxOcclusion:   500,
		SaturateGraph:  false,
		NumStartPoints: int(cfg.NumStartPts),
		StartPointNorm: float64(cfg.StartPointNorm),
		EnableLabels:   hasLabels,
		FilteredLBuild: int(cfg.FilteredLbuild),
		DistanceKind:   distKind,
		Logger:         logger,
		Metrics:        metrics,
	}
	if cfg.UniversalLabel != "" {
		idxCfg.HasUniversalLabel = true
		idxCfg.UniversalLabel = 0
	}

	idx, err := diskann.New[T](idxCfg)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	return &Controller[T]{
		cfg:         cfg,
		dim:         dim,
		npts:        int(maxPoints),
		labels:      labels,
		mips:        mips,
		mipsMaxNorm: maxNorm,
		idx:         idx,
		logger:      logger,
		metrics:     metrics,
		retryGate:   rate.NewLimiter(rate.Every(5*time.Second), 1),
		pending:     make(chan error, 1),
	}, nil
}

// AugmentQuery applies the same MIPS-to-L2 transform used on inserted
// vectors to a query, for callers searching a mips-mode index. It is
// a no-op when the index was built for l2.
func (c *Controller[T]) AugmentQuery(q []T) []T {
	if !c.mips {
		return q
	}
	f32, ok := any(q).([]float32)
	if !ok {
		return q
	}
	aug := distance.AugmentQuery(f32)
	out, ok := any(aug).([]T)
	if !ok {
		return q
	}
	return out
}

func (c *Controller[T]) augmentRow(row []T) []T {
	if !c.mips {
		return row
	}
	f32, ok := any(row).([]float32)
	if !ok {
		return row
	}
	aug := distance.AugmentBase([][]float32{f32}, c.mipsMaxNorm)[0]
	out, ok := any(aug).([]T)
	if !ok {
		return row
	}
	return out
}

// Index returns the underlying index, for callers that want to issue
// searches against it while or after Run executes.
func (c *Controller[T]) Index() *diskann.Index[T] {
	return c.idx
}

// Run streams the configured window of points through the index:
// an initial insert of active_window points, then repeated
// (insert consolidate_interval) phases, each triggering a background
// lazy-delete-and-consolidate pass once enough history has
// accumulated. Returns once every point has been inserted and every
// background pass has completed.
func (c *Controller[T]) Run(ctx context.Context) error {
	activeWindow := int(c.cfg.ActiveWindow)
	consolidateInterval := int(c.cfg.ConsolidateInterval)
	hasLabels := c.idx != nil && c.cfg.LabelFile != ""

	if err := c.insertRange(ctx, 0, activeWindow); err != nil {
		return err
	}

	for start := activeWindow; start+consolidateInterval <= c.npts; start += consolidateInterval {
		end := start + consolidateInterval
		if end > c.npts {
			end = c.npts
		}
		if err := c.insertRange(ctx, start, end); err != nil {
			return err
		}

		if hasLabels {
			c.logWarn("lazy delete is not supported for labeled data, skipping background pass")
			continue
		}

		if err := c.awaitPending(); err != nil {
			return err
		}
		if start >= activeWindow+consolidateInterval {
			startDel := start - activeWindow - consolidateInterval
			endDel := start - activeWindow
			c.launchDeleteAndConsolidate(ctx, startDel, endDel)
		}
	}

	return c.awaitPending()
}

// SavePathHint returns the save-path name the reference driver would
// persist the index under. Persistence itself is out of scope: this
// exists so the driver can log where a save would have gone.
func (c *Controller[T]) SavePathHint() string {
	return fmt.Sprintf("%s.after-streaming-act%d-cons%d-max%d",
		c.cfg.IndexPathPrefix, c.cfg.ActiveWindow, c.cfg.ConsolidateInterval, c.npts)
}

func (c *Controller[T]) insertRange(ctx context.Context, start, end int) error {
	if start >= end {
		return nil
	}
	count := end - start
	data, _, alignedDim, err := vectorfile.LoadPart[T](c.cfg.DataPath, start, count)
	if err != nil {
		return fmt.Errorf("loading points [%d, %d): %w", start, end, err)
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(int(c.cfg.InsertThreads))

	rowLen := alignedDim
	var numFailed int32
	err = c.runLogged(fmt.Sprintf("insert range [%d, %d)", start, end), func() error {
		for j := 0; j < count; j++ {
			j := j
			g.Go(func() error {
				row := c.augmentRow(data[j*rowLen : j*rowLen+c.dim])
				tag := uint32(1 + start + j)
				var labels []uint32
				if c.labels != nil && start+j < len(c.labels) {
					labels = c.labels[start+j]
				}
				if err := c.idx.InsertPoint(row, tag, labels); err != nil {
					atomic.AddInt32(&numFailed, 1)
					c.logWarn(fmt.Sprintf("insert failed for point %d: %v", start+j, err))
				}
				return nil
			})
		}
		return g.Wait()
	})
	if failed := atomic.LoadInt32(&numFailed); failed > 0 {
		c.logWarn(fmt.Sprintf("%d of %d inserts failed in range [%d, %d)", failed, count, start, end))
	}
	return err
}

// launchDeleteAndConsolidate starts the background pass and records
// its completion on c.pending, which awaitPending drains before the
// next one is allowed to start.
func (c *Controller[T]) launchDeleteAndConsolidate(ctx context.Context, start, end int) {
	c.hasPending = true
	go func() {
		c.pending <- c.deleteAndConsolidate(ctx, start, end)
	}()
}

func (c *Controller[T]) awaitPending() error {
	if !c.hasPending {
		return nil
	}
	c.hasPending = false
	return <-c.pending
}

func (c *Controller[T]) deleteAndConsolidate(ctx context.Context, start, end int) error {
	return c.runLogged(fmt.Sprintf("delete and consolidate [%d, %d)", start, end), func() error {
		for i := start; i < end; i++ {
			if err := c.idx.LazyDelete(uint32(1 + i)); err != nil {
				return fmt.Errorf("lazy delete tag %d: %w", 1+i, err)
			}
		}

		for {
			report := c.idx.ConsolidateDeletes(int(c.cfg.ConsolidateThreads))
			switch report.Status {
			case diskann.StatusSuccess:
				if c.metrics != nil {
					c.metrics.UpdateIndexSize(c.idx.Size(), c.idx.Capacity())
					c.metrics.UpdateSlotCounts(c.idx.TombstoneCount(), c.idx.FreeSlotCount())
				}
				return nil
			case diskann.StatusLockFail:
				if c.metrics != nil {
					c.metrics.RecordLockFail()
				}
				c.logWarn(fmt.Sprintf("unable to acquire consolidate lock after deleting [%d, %d), retrying", start, end))
			case diskann.StatusInconsistentCount:
				c.logWarn(fmt.Sprintf("inconsistent counts after deleting [%d, %d), retrying", start, end))
			default:
				return fmt.Errorf("unknown consolidation status %v", report.Status)
			}
			if err := c.retryGate.Wait(ctx); err != nil {
				return err
			}
		}
	})
}

func (c *Controller[T]) logWarn(msg string) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, nil)
}

// runLogged wraps fn in the logger's start/end operation log, or runs
// it unwrapped when no logger was configured.
func (c *Controller[T]) runLogged(operation string, fn func() error) error {
	if c.logger == nil {
		return fn()
	}
	return c.logger.LogOperation(operation, fn)
}

package config

import (
	"fmt"
	"os"
	"strconv"
)

// StreamingConfig holds every parameter the streaming driver needs to
// build and run a single index over a sliding window of a data file.
type StreamingConfig struct {
	DataType     string // int8, uint8, or float
	DistFn       string // l2 or mips
	DataPath     string
	IndexPathPrefix string

	MaxDegree uint32 // R
	Lbuild    uint32 // L
	Alpha     float32

	InsertThreads      uint32
	ConsolidateThreads uint32

	MaxPointsToInsert   uint64 // 0 means "all points in the file"
	ActiveWindow        uint64
	ConsolidateInterval uint64

	StartPointNorm float32
	NumStartPts    uint32

	LabelFile      string
	UniversalLabel string
	LabelType      string // ushort or uint
	FilteredLbuild uint32
}

// Default returns the streaming driver's default configuration,
// mirroring the CLI's own default flag values. DataPath,
// IndexPathPrefix, ActiveWindow, ConsolidateInterval and
// StartPointNorm have no sensible default and are left zero-valued;
// Validate rejects them.
func Default() *StreamingConfig {
	return &StreamingConfig{
		DistFn:             "l2",
		MaxDegree:          64,
		Lbuild:             100,
		Alpha:              1.2,
		InsertThreads:      4,
		ConsolidateThreads: 4,
		StartPointNorm:     0,
		NumStartPts:        1,
		LabelType:          "uint",
	}
}

// LoadFromEnv overlays DISKANN_* environment variables onto Default.
func LoadFromEnv() *StreamingConfig {
	cfg := Default()

	if v := os.Getenv("DISKANN_DATA_TYPE"); v != "" {
		cfg.DataType = v
	}
	if v := os.Getenv("DISKANN_DIST_FN"); v != "" {
		cfg.DistFn = v
	}
	if v := os.Getenv("DISKANN_DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := os.Getenv("DISKANN_INDEX_PATH_PREFIX"); v != "" {
		cfg.IndexPathPrefix = v
	}
	if v := os.Getenv("DISKANN_MAX_DEGREE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxDegree = uint32(n)
		}
	}
	if v := os.Getenv("DISKANN_LBUILD"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Lbuild = uint32(n)
		}
	}
	if v := os.Getenv("DISKANN_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Alpha = float32(f)
		}
	}
	if v := os.Getenv("DISKANN_INSERT_THREADS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.InsertThreads = uint32(n)
		}
	}
	if v := os.Getenv("DISKANN_CONSOLIDATE_THREADS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.ConsolidateThreads = uint32(n)
		}
	}
	if v := os.Getenv("DISKANN_ACTIVE_WINDOW"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ActiveWindow = n
		}
	}
	if v := os.Getenv("DISKANN_CONSOLIDATE_INTERVAL"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ConsolidateInterval = n
		}
	}
	if v := os.Getenv("DISKANN_MAX_POINTS_TO_INSERT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MaxPointsToInsert = n
		}
	}
	if v := os.Getenv("DISKANN_LABEL_FILE"); v != "" {
		cfg.LabelFile = v
	}
	if v := os.Getenv("DISKANN_UNIVERSAL_LABEL"); v != "" {
		cfg.UniversalLabel = v
	}

	return cfg
}

// Validate checks the configuration is complete and internally
// consistent, following the same preconditions the streaming driver
// itself enforces before it will start inserting.
func (c *StreamingConfig) Validate() error {
	switch c.DataType {
	case "int8", "uint8", "float":
	default:
		return fmt.Errorf("invalid data_type %q (must be int8, uint8, or float)", c.DataType)
	}
	switch c.DistFn {
	case "l2", "mips":
	default:
		return fmt.Errorf("invalid dist_fn %q (must be l2 or mips)", c.DistFn)
	}
	if c.DistFn == "mips" && c.DataType != "float" {
		return fmt.Errorf("dist_fn mips requires data_type float, got %q", c.DataType)
	}
	if c.LabelFile != "" {
		switch c.LabelType {
		case "ushort", "uint":
		default:
			return fmt.Errorf("invalid label_type %q (must be ushort or uint)", c.LabelType)
		}
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path not specified")
	}
	if c.IndexPathPrefix == "" {
		return fmt.Errorf("index_path_prefix not specified")
	}
	if c.ActiveWindow == 0 {
		return fmt.Errorf("active_window must be > 0")
	}
	if c.ConsolidateInterval == 0 {
		return fmt.Errorf("consolidate_interval must be > 0")
	}
	if c.StartPointNorm == 0 {
		return fmt.Errorf("start_point_norm must be non-zero: with an empty starting index, the frozen start points need a norm scaled to the data, or every search degenerates to the origin")
	}
	if c.MaxPointsToInsert != 0 && c.MaxPointsToInsert < c.ActiveWindow+c.ConsolidateInterval {
		return fmt.Errorf("max_points_to_insert (%d) < active_window + consolidate_interval (%d)",
			c.MaxPointsToInsert, c.ActiveWindow+c.ConsolidateInterval)
	}
	if c.MaxPointsToInsert != 0 && c.ConsolidateInterval < c.MaxPointsToInsert/1000 {
		return fmt.Errorf("consolidate_interval (%d) is too small relative to max_points_to_insert (%d)",
			c.ConsolidateInterval, c.MaxPointsToInsert)
	}
	return nil
}

// Capacity returns the slot capacity the index should be built with:
// the active window plus four consolidate intervals of headroom,
// matching the reference driver's own sizing.
func (c *StreamingConfig) Capacity() uint64 {
	return c.ActiveWindow + 4*c.ConsolidateInterval
}

package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.DistFn != "l2" {
		t.Errorf("expected dist_fn l2, got %s", cfg.DistFn)
	}
	if cfg.MaxDegree != 64 {
		t.Errorf("expected max_degree 64, got %d", cfg.MaxDegree)
	}
	if cfg.Lbuild != 100 {
		t.Errorf("expected Lbuild 100, got %d", cfg.Lbuild)
	}
	if cfg.Alpha != 1.2 {
		t.Errorf("expected alpha 1.2, got %f", cfg.Alpha)
	}
	if cfg.NumStartPts != 1 {
		t.Errorf("expected num_start_pts 1, got %d", cfg.NumStartPts)
	}
	if cfg.LabelType != "uint" {
		t.Errorf("expected label_type uint, got %s", cfg.LabelType)
	}
}

func TestLoadFromEnv(t *testing.T) {
	envVars := []string{
		"DISKANN_DATA_TYPE", "DISKANN_DIST_FN", "DISKANN_DATA_PATH",
		"DISKANN_INDEX_PATH_PREFIX", "DISKANN_MAX_DEGREE", "DISKANN_LBUILD",
		"DISKANN_ALPHA", "DISKANN_ACTIVE_WINDOW", "DISKANN_CONSOLIDATE_INTERVAL",
	}
	original := make(map[string]string)
	for _, key := range envVars {
		original[key] = os.Getenv(key)
	}
	defer func() {
		for key, value := range original {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	os.Setenv("DISKANN_DATA_TYPE", "int8")
	os.Setenv("DISKANN_DIST_FN", "mips")
	os.Setenv("DISKANN_DATA_PATH", "/tmp/data.bin")
	os.Setenv("DISKANN_INDEX_PATH_PREFIX", "/tmp/index")
	os.Setenv("DISKANN_MAX_DEGREE", "32")
	os.Setenv("DISKANN_LBUILD", "200")
	os.Setenv("DISKANN_ALPHA", "1.4")
	os.Setenv("DISKANN_ACTIVE_WINDOW", "1000")
	os.Setenv("DISKANN_CONSOLIDATE_INTERVAL", "100")

	cfg := LoadFromEnv()

	if cfg.DataType != "int8" {
		t.Errorf("expected data_type int8, got %s", cfg.DataType)
	}
	if cfg.DistFn != "mips" {
		t.Errorf("expected dist_fn mips, got %s", cfg.DistFn)
	}
	if cfg.MaxDegree != 32 {
		t.Errorf("expected max_degree 32, got %d", cfg.MaxDegree)
	}
	if cfg.Lbuild != 200 {
		t.Errorf("expected Lbuild 200, got %d", cfg.Lbuild)
	}
	if cfg.Alpha != 1.4 {
		t.Errorf("expected alpha 1.4, got %f", cfg.Alpha)
	}
	if cfg.ActiveWindow != 1000 {
		t.Errorf("expected active_window 1000, got %d", cfg.ActiveWindow)
	}
	if cfg.ConsolidateInterval != 100 {
		t.Errorf("expected consolidate_interval 100, got %d", cfg.ConsolidateInterval)
	}
}

func TestLoadFromEnvInvalidValuesFallBackToDefault(t *testing.T) {
	original := os.Getenv("DISKANN_MAX_DEGREE")
	defer func() {
		if original == "" {
			os.Unsetenv("DISKANN_MAX_DEGREE")
		} else {
			os.Setenv("DISKANN_MAX_DEGREE", original)
		}
	}()

	os.Setenv("DISKANN_MAX_DEGREE", "not-a-number")
	cfg := LoadFromEnv()
	if cfg.MaxDegree != 64 {
		t.Errorf("expected default max_degree 64 for invalid value, got %d", cfg.MaxDegree)
	}
}

func TestValidate(t *testing.T) {
	base := func() *StreamingConfig {
		cfg := Default()
		cfg.DataType = "float"
		cfg.DataPath = "data.bin"
		cfg.IndexPathPrefix = "idx"
		cfg.ActiveWindow = 1000
		cfg.ConsolidateInterval = 100
		cfg.StartPointNorm = 1.0
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*StreamingConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *StreamingConfig) {}, wantErr: false},
		{name: "bad data type", mutate: func(c *StreamingConfig) { c.DataType = "float64" }, wantErr: true},
		{name: "bad dist fn", mutate: func(c *StreamingConfig) { c.DistFn = "cosine" }, wantErr: true},
		{name: "missing data path", mutate: func(c *StreamingConfig) { c.DataPath = "" }, wantErr: true},
		{name: "missing index prefix", mutate: func(c *StreamingConfig) { c.IndexPathPrefix = "" }, wantErr: true},
		{name: "zero active window", mutate: func(c *StreamingConfig) { c.ActiveWindow = 0 }, wantErr: true},
		{name: "zero consolidate interval", mutate: func(c *StreamingConfig) { c.ConsolidateInterval = 0 }, wantErr: true},
		{name: "zero start point norm", mutate: func(c *StreamingConfig) { c.StartPointNorm = 0 }, wantErr: true},
		{
			name: "max points smaller than window+interval",
			mutate: func(c *StreamingConfig) {
				c.MaxPointsToInsert = 500
			},
			wantErr: true,
		},
		{
			name: "bad label type when labels given",
			mutate: func(c *StreamingConfig) {
				c.LabelFile = "labels.txt"
				c.LabelType = "int"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	cfg := &StreamingConfig{ActiveWindow: 1000, ConsolidateInterval: 200}
	if got := cfg.Capacity(); got != 1800 {
		t.Errorf("Capacity() = %d, want 1800", got)
	}
}

package streaming

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-diskann/diskann/pkg/config"
)

func writeBinFloat32(t *testing.T, path string, npts, dim int, fill func(i, j int) float32) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(npts))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(dim))
	if _, err := f.Write(hdr[:]); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i := 0; i < npts; i++ {
		for j := 0; j < dim; j++ {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(fill(i, j)))
			if _, err := f.Write(buf[:]); err != nil {
				t.Fatalf("write point: %v", err)
			}
		}
	}
}

func baseConfig(t *testing.T, npts, dim int) *config.StreamingConfig {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.bin")
	writeBinFloat32(t, path, npts, dim, func(i, j int) float32 {
		return float32(i) + float32(j)*0.01
	})

	cfg := config.Default()
	cfg.DataType = "float"
	cfg.DataPath = path
	cfg.IndexPathPrefix = filepath.Join(dir, "idx")
	cfg.MaxDegree = 8
	cfg.Lbuild = 16
	cfg.InsertThreads = 2
	cfg.ConsolidateThreads = 2
	cfg.ActiveWindow = 20
	cfg.ConsolidateInterval = 5
	cfg.MaxPointsToInsert = uint64(npts)
	cfg.StartPointNorm = 1.0
	return cfg
}

func TestControllerRunStreamsEveryPoint(t *testing.T) {
	cfg := baseConfig(t, 60, 4)
	ctrl, err := New[float32](cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if ctrl.Index().Size() == 0 {
		t.Fatal("index is empty after a streaming run")
	}
	if ctrl.Index().Size() > int(cfg.Capacity()) {
		t.Fatalf("index size %d exceeds configured capacity %d", ctrl.Index().Size(), cfg.Capacity())
	}
}

func TestControllerSavePathHintNamesTheWindow(t *testing.T) {
	cfg := baseConfig(t, 30, 4)
	ctrl, err := New[float32](cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hint := ctrl.SavePathHint()
	want := cfg.IndexPathPrefix + ".after-streaming-act20-cons5-max30"
	if hint != want {
		t.Fatalf("SavePathHint = %q, want %q", hint, want)
	}
}

func TestNewRejectsTooFewPoints(t *testing.T) {
	cfg := baseConfig(t, 10, 4)
	cfg.MaxPointsToInsert = 1000
	if _, err := New[float32](cfg, nil, nil); err == nil {
		t.Fatal("expected an error when the file has fewer points than max_points_to_insert")
	}
}

func TestNewRejectsMipsWithNonFloatData(t *testing.T) {
	cfg := baseConfig(t, 10, 4)
	cfg.DataType = "int8"
	cfg.DistFn = "mips"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject mips with a non-float data_type")
	}
}

func TestControllerMipsAugmentsVectors(t *testing.T) {
	cfg := baseConfig(t, 40, 4)
	cfg.DistFn = "mips"
	ctrl, err := New[float32](cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctrl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctrl.Index().Size() == 0 {
		t.Fatal("mips index is empty after a streaming run")
	}
}

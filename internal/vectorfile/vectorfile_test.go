package vectorfile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
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

func TestLoadPartFloat32ZeroPadsTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.bin")
	npts, dim := 5, 5 // not a multiple of 8
	writeBinFloat32(t, path, npts, dim, func(i, j int) float32 {
		return float32(i*dim + j)
	})

	data, gotDim, alignedDim, err := LoadPart[float32](path, 1, 2)
	if err != nil {
		t.Fatalf("LoadPart: %v", err)
	}
	if gotDim != dim {
		t.Fatalf("dim = %d, want %d", gotDim, dim)
	}
	if alignedDim != 8 {
		t.Fatalf("alignedDim = %d, want 8", alignedDim)
	}
	if len(data) != 2*alignedDim {
		t.Fatalf("len(data) = %d, want %d", len(data), 2*alignedDim)
	}
	// First loaded point is original point index 1.
	for j := 0; j < dim; j++ {
		want := float32(1*dim + j)
		if data[j] != want {
			t.Fatalf("data[%d] = %f, want %f", j, data[j], want)
		}
	}
	for j := dim; j < alignedDim; j++ {
		if data[j] != 0 {
			t.Fatalf("padding at %d = %f, want 0", j, data[j])
		}
	}
}

func TestLoadPartRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.bin")
	writeBinFloat32(t, path, 3, 4, func(i, j int) float32 { return 0 })

	if _, _, _, err := LoadPart[float32](path, 2, 5); err == nil {
		t.Fatal("expected error for out-of-range request")
	}
}

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecs.bin")
	writeBinFloat32(t, path, 7, 16, func(i, j int) float32 { return 0 })

	npts, dim, err := Metadata(path)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if npts != 7 || dim != 16 {
		t.Fatalf("Metadata = (%d, %d), want (7, 16)", npts, dim)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	dir := t.TempDir()
	labelFile := filepath.Join(dir, "labels.txt")
	if err := os.WriteFile(labelFile, []byte("red,blue\nblue\nred,green\n"), 0o644); err != nil {
		t.Fatalf("write label file: %v", err)
	}

	formatted := filepath.Join(dir, "out_label_formatted.txt")
	mapFile := filepath.Join(dir, "out_labels_map.txt")

	ids, err := ConvertLabelsStringToInt(labelFile, formatted, mapFile, "")
	if err != nil {
		t.Fatalf("ConvertLabelsStringToInt: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3", len(ids))
	}

	rows, err := ParseFormattedLabelFile(formatted)
	if err != nil {
		t.Fatalf("ParseFormattedLabelFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if len(rows[0]) != 2 || len(rows[1]) != 1 || len(rows[2]) != 2 {
		t.Fatalf("unexpected row shapes: %v", rows)
	}
}

func TestConvertLabelsAssignsUniversalLabelZero(t *testing.T) {
	dir := t.TempDir()
	labelFile := filepath.Join(dir, "labels.txt")
	os.WriteFile(labelFile, []byte("red\nblue\n"), 0o644)

	formatted := filepath.Join(dir, "f.txt")
	mapFile := filepath.Join(dir, "m.txt")
	ids, err := ConvertLabelsStringToInt(labelFile, formatted, mapFile, "universal")
	if err != nil {
		t.Fatalf("ConvertLabelsStringToInt: %v", err)
	}
	if ids["universal"] != 0 {
		t.Fatalf("universal label id = %d, want 0", ids["universal"])
	}
}

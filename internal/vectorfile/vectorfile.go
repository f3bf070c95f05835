// Package vectorfile implements the binary vector/truthset file formats
// and the label file format named in the streaming driver's external
// interfaces. None of this is part of the graph algorithm itself — it
// is the concrete realization of the VectorSource collaborator the
// core index treats as external.
package vectorfile

import (
	"fmt"
	"math"
	"os"

	"github.com/go-diskann/diskann/internal/distance"
)

const headerSize = 2 * 4 // two little-endian uint32s: npts, dim

// RoundUpDim8 rounds dim up to the next multiple of 8, matching the
// aligned_dim convention every vector buffer uses so distance kernels
// can assume SIMD-friendly alignment.
func RoundUpDim8(dim int) int {
	return (dim + 7) &^ 7
}

// Metadata reads just the npts/dim header of a vector file.
func Metadata(path string) (npts, dim int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var hdr [headerSize]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		return 0, 0, fmt.Errorf("reading vector file header: %w", err)
	}
	npts = int(le32(hdr[0:4]))
	dim = int(le32(hdr[4:8]))
	return npts, dim, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func elemSize[T distance.Number]() int {
	var z T
	switch any(z).(type) {
	case float32:
		return 4
	default:
		return 1
	}
}

func decodeInto[T distance.Number](raw []byte, out []T) {
	switch o := any(out).(type) {
	case []int8:
		for i, b := range raw {
			o[i] = int8(b)
		}
	case []uint8:
		copy(o, raw)
	case []float32:
		for i := range o {
			bits := le32(raw[i*4 : i*4+4])
			o[i] = math.Float32frombits(bits)
		}
	}
}

// LoadPart reads numPoints vectors starting at offsetPoints from a bin
// file, zero-padding each vector's tail out to a multiple-of-8
// dimension the way load_aligned_bin_part does. Returns the flattened
// buffer (length numPoints*alignedDim), the raw dim, and alignedDim.
func LoadPart[T distance.Number](path string, offsetPoints, numPoints int) (data []T, dim, alignedDim int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, 0, err
	}

	var hdr [headerSize]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		return nil, 0, 0, fmt.Errorf("reading vector file header: %w", err)
	}
	npts := int(le32(hdr[0:4]))
	dim = int(le32(hdr[4:8]))
	size := elemSize[T]()

	expected := int64(npts)*int64(dim)*int64(size) + headerSize
	if info.Size() != expected {
		return nil, 0, 0, fmt.Errorf("%w: actual size %d, expected %d (npts=%d dim=%d elemsize=%d)",
			ErrFileFormat, info.Size(), expected, npts, dim, size)
	}
	if offsetPoints+numPoints > npts {
		return nil, 0, 0, fmt.Errorf("%w: requested %d offset and %d points, but file has only %d points",
			ErrFileFormat, offsetPoints, numPoints, npts)
	}

	alignedDim = RoundUpDim8(dim)
	data = make([]T, numPoints*alignedDim)

	rowBytes := dim * size
	raw := make([]byte, rowBytes)
	base := int64(headerSize) + int64(offsetPoints)*int64(rowBytes)

	for i := 0; i < numPoints; i++ {
		if _, err := f.ReadAt(raw, base+int64(i)*int64(rowBytes)); err != nil {
			return nil, 0, 0, fmt.Errorf("reading point %d: %w", offsetPoints+i, err)
		}
		decodeInto(raw, data[i*alignedDim:i*alignedDim+dim])
	}

	return data, dim, alignedDim, nil
}

// ErrFileFormat is returned when a vector or truthset file's size does
// not match what its own header claims.
var ErrFileFormat = fmt.Errorf("vectorfile: file size mismatch")

// MaxNorm scans the first n points of a float32 vector file and
// returns the largest L2 norm seen, for use as the maxNorm argument to
// distance.AugmentBase when building a MIPS index.
func MaxNorm(path string, n int) (float32, error) {
	const chunk = 8192
	var maxNorm float32
	for offset := 0; offset < n; offset += chunk {
		count := chunk
		if offset+count > n {
			count = n - offset
		}
		data, dim, alignedDim, err := LoadPart[float32](path, offset, count)
		if err != nil {
			return 0, err
		}
		for i := 0; i < count; i++ {
			row := data[i*alignedDim : i*alignedDim+dim]
			var normSq float32
			for _, x := range row {
				normSq += x * x
			}
			if n := float32(math.Sqrt(float64(normSq))); n > maxNorm {
				maxNorm = n
			}
		}
	}
	return maxNorm, nil
}

package vectorfile

import (
	"fmt"
	"math"
	"os"
)

// Truthset is the parsed contents of a recall-evaluation truthset
// file: npts rows of dim nearest-neighbor ids, and optionally their
// distances.
type Truthset struct {
	IDs   [][]uint32
	Dists [][]float32
}

// ReadTruthset reads a truthset file (§6): u32 npts, u32 dim, then
// npts*dim u32 ids, then optionally npts*dim f32 distances. Whether
// distances are present is disambiguated purely by comparing the
// file's actual size against the two possible expected sizes.
func ReadTruthset(path string) (*Truthset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var hdr [headerSize]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("reading truthset header: %w", err)
	}
	npts := int(le32(hdr[0:4]))
	dim := int(le32(hdr[4:8]))

	idsOnlySize := int64(headerSize) + int64(npts)*int64(dim)*4
	withDistsSize := idsOnlySize + int64(npts)*int64(dim)*4

	hasDists := info.Size() == withDistsSize
	if !hasDists && info.Size() != idsOnlySize {
		return nil, fmt.Errorf("%w: truthset size %d matches neither ids-only (%d) nor ids+dists (%d)",
			ErrFileFormat, info.Size(), idsOnlySize, withDistsSize)
	}

	idsRaw := make([]byte, int64(npts)*int64(dim)*4)
	if _, err := f.ReadAt(idsRaw, headerSize); err != nil {
		return nil, fmt.Errorf("reading truthset ids: %w", err)
	}

	ts := &Truthset{IDs: make([][]uint32, npts)}
	for i := 0; i < npts; i++ {
		row := make([]uint32, dim)
		for j := 0; j < dim; j++ {
			off := (i*dim + j) * 4
			row[j] = le32(idsRaw[off : off+4])
		}
		ts.IDs[i] = row
	}

	if hasDists {
		distsRaw := make([]byte, int64(npts)*int64(dim)*4)
		if _, err := f.ReadAt(distsRaw, idsOnlySize); err != nil {
			return nil, fmt.Errorf("reading truthset distances: %w", err)
		}
		ts.Dists = make([][]float32, npts)
		for i := 0; i < npts; i++ {
			row := make([]float32, dim)
			for j := 0; j < dim; j++ {
				off := (i*dim + j) * 4
				bits := le32(distsRaw[off : off+4])
				row[j] = math.Float32frombits(bits)
			}
			ts.Dists[i] = row
		}
	}

	return ts, nil
}

// Package distance provides the concrete L2 kernel the diskann graph
// is built and searched over.
//
// The index itself only ever computes L2: MIPS support is a
// caller-side transform (see Kind and the Augment* helpers) that
// appends one coordinate to every vector so that maximizing inner
// product becomes minimizing Euclidean distance. Once that transform
// has been applied, the index is oblivious to which metric the caller
// actually wants.
//
// For float32 the package uses build-time-free runtime CPU detection
// (AVX2) to pick between a Gonum/BLAS dot-product kernel and a pure-Go
// loop; int8 and uint8 always use the pure-Go kernel, mirroring how
// the rest of the retrieval corpus dispatches distance kernels.
package distance

import (
	"log"
	"math"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/blas32"
)

// Kind names the metric the caller is building the index for. The
// index only executes L2 internally; Kind only steers whether the
// driver applies the MIPS transform before handing vectors to the
// index (see AugmentBase and AugmentQuery).
type Kind int

const (
	L2 Kind = iota
	MIPS
)

func (k Kind) String() string {
	switch k {
	case L2:
		return "l2"
	case MIPS:
		return "mips"
	default:
		return "unknown"
	}
}

// ParseKind parses the --dist_fn flag value.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "l2":
		return L2, true
	case "mips":
		return MIPS, true
	default:
		return 0, false
	}
}

// Number is the set of element types the vector store can hold.
type Number interface {
	int8 | uint8 | float32
}

var useBLAS bool

func init() {
	useBLAS = cpuid.CPU.Has(cpuid.AVX2)
	if useBLAS {
		log.Println("diskann distance: float32 path using Gonum/BLAS (AVX2 detected)")
	} else {
		log.Println("diskann distance: float32 path using pure Go (no AVX2)")
	}
	log.Println("diskann distance: int8/uint8 path using pure Go (no BLAS integer kernels)")
}

// Func computes the squared L2 distance between two equal-length
// vectors. Squared distance is used throughout the graph (greedy
// search, RobustPrune) because it is monotonic in true L2 and avoids
// a sqrt per comparison.
type Func[T Number] func(a, b []T) float32

// L2Squared dispatches to the fastest available kernel for T.
func L2Squared[T Number](a, b []T) float32 {
	switch va := any(a).(type) {
	case []float32:
		return l2Float32(va, any(b).([]float32))
	default:
		return l2Generic(a, b)
	}
}

func l2Float32(a, b []float32) float32 {
	if useBLAS {
		return l2Float32BLAS(a, b)
	}
	return l2Float32Pure(a, b)
}

func l2Float32BLAS(a, b []float32) float32 {
	diff := make([]float32, len(a))
	for i := range a {
		diff[i] = a[i] - b[i]
	}
	v := blas32.Vector{N: len(diff), Data: diff, Inc: 1}
	return blas32.Dot(v, v)
}

func l2Float32Pure(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func l2Generic[T Number](a, b []T) float32 {
	var sum float32
	for i := range a {
		d := float32(a[i]) - float32(b[i])
		sum += d * d
	}
	return sum
}

// For selects the squared-L2 kernel for element type T. Kind is
// accepted for symmetry with ParseKind/the CLI surface but does not
// change the kernel: by the time vectors reach the index, any MIPS
// transform has already been applied (see AugmentBase), so only L2 ever
// runs inside the graph.
func For[T Number](_ Kind) Func[T] {
	return L2Squared[T]
}

// AugmentBase appends one coordinate to each base vector so that
// maximizing inner product over the original vectors is equivalent to
// minimizing L2 distance over the augmented ones. maxNorm must be an
// upper bound on the L2 norm of every vector in the batch (callers
// typically use the global max over the full dataset); every
// augmented base vector then has norm <= 1.
func AugmentBase(vectors [][]float32, maxNorm float32) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = augmentOne(v, maxNorm)
	}
	return out
}

func augmentOne(v []float32, maxNorm float32) []float32 {
	var normSq float32
	for _, x := range v {
		normSq += x * x
	}
	scaled := make([]float32, len(v)+1)
	if maxNorm <= 0 {
		copy(scaled, v)
		return scaled
	}
	inv := 1 / maxNorm
	for i, x := range v {
		scaled[i] = x * inv
	}
	residual := 1 - normSq*inv*inv
	if residual < 0 {
		residual = 0
	}
	scaled[len(v)] = sqrt32(residual)
	return scaled
}

// AugmentQuery appends the zero coordinate queries need so that the
// extra dimension contributes nothing to the L2 comparison.
func AugmentQuery(v []float32) []float32 {
	out := make([]float32, len(v)+1)
	copy(out, v)
	return out
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}

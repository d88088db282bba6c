package workloads

import "github.com/sarchlab/cachesim/timing/cache"

const wordSize = cache.WordSize

// VectorLayout places three n-word vectors back to back: a at 0, b right
// after a, and c right after b.
type VectorLayout struct {
	N int

	baseA, baseB, baseC uint32
}

// NewVectorLayout lays out three vectors of length n.
func NewVectorLayout(n int) VectorLayout {
	size := uint32(n * wordSize)
	return VectorLayout{
		N:     n,
		baseA: 0,
		baseB: size,
		baseC: 2 * size,
	}
}

// A returns the address of a[i].
func (l VectorLayout) A(i int) uint32 { return l.baseA + uint32(i*wordSize) }

// B returns the address of b[i].
func (l VectorLayout) B(i int) uint32 { return l.baseB + uint32(i*wordSize) }

// C returns the address of c[i].
func (l VectorLayout) C(i int) uint32 { return l.baseC + uint32(i*wordSize) }

// MatrixLayout places three row-major n×n matrices back to back.
type MatrixLayout struct {
	N int

	baseA, baseB, baseC uint32
}

// NewMatrixLayout lays out three n×n matrices.
func NewMatrixLayout(n int) MatrixLayout {
	size := uint32(n * n * wordSize)
	return MatrixLayout{
		N:     n,
		baseA: 0,
		baseB: size,
		baseC: 2 * size,
	}
}

func (l MatrixLayout) offset(i, j int) uint32 {
	return uint32((i*l.N + j) * wordSize)
}

// A returns the address of a[i][j].
func (l MatrixLayout) A(i, j int) uint32 { return l.baseA + l.offset(i, j) }

// B returns the address of b[i][j].
func (l MatrixLayout) B(i, j int) uint32 { return l.baseB + l.offset(i, j) }

// C returns the address of c[i][j].
func (l MatrixLayout) C(i, j int) uint32 { return l.baseC + l.offset(i, j) }

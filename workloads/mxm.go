package workloads

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/sarchlab/cachesim/emu"
)

// initMatrices stores a[i][j] = v, b[i][j] = 2v and c[i][j] = 0, with v
// counting up in row-major order.
func initMatrices(p *emu.Processor, l MatrixLayout) {
	val := 0.0
	for i := 0; i < l.N; i++ {
		for j := 0; j < l.N; j++ {
			p.Store(l.A(i, j), val)
			p.Store(l.B(i, j), 2*val)
			p.Store(l.C(i, j), 0)
			val++
		}
	}
}

func storeC(p *emu.Processor, l MatrixLayout, c *mat.Dense) {
	for i := 0; i < l.N; i++ {
		for j := 0; j < l.N; j++ {
			p.Store(l.C(i, j), c.At(i, j))
		}
	}
}

func readBackC(p *emu.Processor, l MatrixLayout, name string) ([][]float64, error) {
	out := make([][]float64, l.N)
	for i := 0; i < l.N; i++ {
		out[i] = make([]float64, l.N)
		for j := 0; j < l.N; j++ {
			v, err := p.Load(l.C(i, j))
			if err != nil {
				return nil, fmt.Errorf("%s: reading back c[%d][%d]: %w", name, i, j, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// MxM multiplies two n×n matrices: it loads all of a and b, multiplies them
// in one step, and stores c.
func MxM(p *emu.Processor, n int, readBack bool) ([][]float64, error) {
	l := NewMatrixLayout(n)
	initMatrices(p, l)

	r1 := mat.NewDense(n, n, nil)
	r2 := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, err := p.Load(l.A(i, j))
			if err != nil {
				return nil, fmt.Errorf("mxm: loading a[%d][%d]: %w", i, j, err)
			}
			r1.Set(i, j, v)

			if v, err = p.Load(l.B(i, j)); err != nil {
				return nil, fmt.Errorf("mxm: loading b[%d][%d]: %w", i, j, err)
			}
			r2.Set(i, j, v)
		}
	}

	storeC(p, l, p.MatMul(r1, r2))

	if !readBack {
		return nil, nil
	}
	return readBackC(p, l, "mxm")
}

// MxMBlock multiplies two n×n matrices tile by tile. Each factor×factor tile
// of a and b is loaded, multiplied, and accumulated into c. factor must
// divide n.
func MxMBlock(p *emu.Processor, n, factor int, readBack bool) ([][]float64, error) {
	if factor < 1 || n%factor != 0 {
		return nil, fmt.Errorf("mxm_block: blocking factor %d does not divide %d", factor, n)
	}

	l := NewMatrixLayout(n)
	initMatrices(p, l)

	temp := mat.NewDense(n, n, nil)
	r1 := mat.NewDense(factor, factor, nil)
	r2 := mat.NewDense(factor, factor, nil)

	for i := 0; i < n; i += factor {
		for j := 0; j < n; j += factor {
			for k := 0; k < n; k += factor {
				for ii := 0; ii < factor; ii++ {
					for jj := 0; jj < factor; jj++ {
						v, err := p.Load(l.A(i+ii, k+jj))
						if err != nil {
							return nil, fmt.Errorf("mxm_block: loading a[%d][%d]: %w", i+ii, k+jj, err)
						}
						r1.Set(ii, jj, v)

						if v, err = p.Load(l.B(k+ii, j+jj)); err != nil {
							return nil, fmt.Errorf("mxm_block: loading b[%d][%d]: %w", k+ii, j+jj, err)
						}
						r2.Set(ii, jj, v)
					}
				}

				r3 := p.MatMul(r1, r2)
				tile := temp.Slice(i, i+factor, j, j+factor).(*mat.Dense)
				tile.Copy(p.AddMatrix(tile, r3))
			}
		}
	}

	storeC(p, l, temp)

	if !readBack {
		return nil, nil
	}
	return readBackC(p, l, "mxm_block")
}

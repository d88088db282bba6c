package workloads

import (
	"fmt"

	"github.com/sarchlab/cachesim/emu"
)

// Daxpy computes c = 3a + b over vectors of length n, with a[i] = i and
// b[i] = 2i. If readBack is set, c is loaded again and returned as a single
// row.
func Daxpy(p *emu.Processor, n int, readBack bool) ([][]float64, error) {
	l := NewVectorLayout(n)

	for i := 0; i < n; i++ {
		p.Store(l.A(i), float64(i))
		p.Store(l.B(i), float64(2*i))
		p.Store(l.C(i), 0)
	}

	r1 := make([]float64, n)
	r2 := make([]float64, n)
	for i := 0; i < n; i++ {
		var err error
		if r1[i], err = p.Load(l.A(i)); err != nil {
			return nil, fmt.Errorf("daxpy: loading a[%d]: %w", i, err)
		}
		if r2[i], err = p.Load(l.B(i)); err != nil {
			return nil, fmt.Errorf("daxpy: loading b[%d]: %w", i, err)
		}
	}

	r3 := p.Multiply([]float64{3}, r1)
	r4 := p.Add(r3, r2)

	for i := 0; i < n; i++ {
		p.Store(l.C(i), r4[i])
	}

	if !readBack {
		return nil, nil
	}

	row := make([]float64, n)
	for i := 0; i < n; i++ {
		var err error
		if row[i], err = p.Load(l.C(i)); err != nil {
			return nil, fmt.Errorf("daxpy: reading back c[%d]: %w", i, err)
		}
	}

	return [][]float64{row}, nil
}

package emu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Add returns a + b elementwise. A length-1 operand is broadcast. One
// instruction is counted per result element.
func (p *Processor) Add(a, b []float64) []float64 {
	return p.elementwise(a, b, func(x, y float64) float64 { return x + y })
}

// Multiply returns a * b elementwise. A length-1 operand is broadcast. One
// instruction is counted per result element.
func (p *Processor) Multiply(a, b []float64) []float64 {
	return p.elementwise(a, b, func(x, y float64) float64 { return x * y })
}

func (p *Processor) elementwise(a, b []float64, op func(x, y float64) float64) []float64 {
	n := len(a)
	switch {
	case len(a) == 1:
		n = len(b)
	case len(b) == 1, len(a) == len(b):
	default:
		panic(fmt.Sprintf("emu: operand lengths %d and %d do not match", len(a), len(b)))
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = op(a[broadcast(i, len(a))], b[broadcast(i, len(b))])
	}

	p.instructions += uint64(n)

	return out
}

func broadcast(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

// AddMatrix returns a + b. One instruction is counted per element.
func (p *Processor) AddMatrix(a, b *mat.Dense) *mat.Dense {
	r, c := a.Dims()

	var out mat.Dense
	out.Add(a, b)

	p.instructions += uint64(r * c)

	return &out
}

// MatMul returns the product of two n×n matrices, counting 2n³ − n²
// instructions: n³ multiplies and n²(n−1) adds.
func (p *Processor) MatMul(a, b *mat.Dense) *mat.Dense {
	n, _ := a.Dims()

	var out mat.Dense
	out.Mul(a, b)

	p.instructions += matMulCost(n)

	return &out
}

func matMulCost(n int) uint64 {
	m := uint64(n)
	return 2*m*m*m - m*m
}

package ops

import (
	"math"
	"math/bits"
	"math/cmplx"
	"strconv"
)

// Matrix is a dense square complex matrix in row-major order.
type Matrix [][]complex128

// Identity returns the n×n identity matrix.
func Identity(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]complex128, n)
		m[i][i] = 1
	}
	return m
}

// Dim returns the number of rows.
func (m Matrix) Dim() int { return len(m) }

// NumQubits returns log2 of the dimension.
func (m Matrix) NumQubits() int {
	return bits.TrailingZeros(uint(len(m)))
}

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	n := len(m)
	out := make(Matrix, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for k := 0; k < n; k++ {
			if m[i][k] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func (m Matrix) Dagger() Matrix {
	n := len(m)
	out := make(Matrix, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			out[i][j] = cmplx.Conj(m[j][i])
		}
	}
	return out
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i := range m {
		out[i] = append([]complex128(nil), m[i]...)
	}
	return out
}

// ApproxEqual compares entries with |a-b| <= atol + rtol*|b|.
func (m Matrix) ApproxEqual(o Matrix, rtol, atol float64) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if len(m[i]) != len(o[i]) {
			return false
		}
		for j := range m[i] {
			if cmplx.Abs(m[i][j]-o[i][j]) > atol+rtol*cmplx.Abs(o[i][j]) {
				return false
			}
		}
	}
	return true
}

func validShape(m Matrix) bool {
	n := len(m)
	if n < 2 || n&(n-1) != 0 {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}

func phase(theta float64) complex128 {
	return cmplx.Exp(complex(0, theta))
}

func diag2(a, b complex128) Matrix {
	return Matrix{{a, 0}, {0, b}}
}

func rx(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return Matrix{{c, s}, {s, c}}
}

func ry(theta float64) Matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return Matrix{{c, -s}, {s, c}}
}

func rz(theta float64) Matrix {
	return diag2(phase(-theta/2), phase(theta/2))
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

package primitives

import (
	"errors"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
)

// ErrDLogNotFound is returned when BSGS exhausts the search range without a match.
var ErrDLogNotFound = errors.New("primitives: discrete log not found in range")

// SolveSmallDLog recovers x in [0, rangeSize) such that target = x*G, using
// baby-step/giant-step. rangeSize is expected to be small (escrow uses
// 2^8 per segment), so the O(sqrt(rangeSize)) table fits comfortably in
// memory.
func SolveSmallDLog(target *curve.Point, rangeSize uint64) (uint64, error) {
	if rangeSize == 0 {
		return 0, ErrDLogNotFound
	}

	m := uint64(isqrt(rangeSize)) + 1

	babySteps := make(map[string]uint64, m)
	g := curve.BasePoint()
	acc := zeroPoint()
	for j := uint64(0); j < m; j++ {
		babySteps[string(acc.CompressedBytes())] = j
		acc = acc.Add(g)
	}

	mScalar, err := curve.ScalarFromBigInt(new(big.Int).SetUint64(m))
	if err != nil {
		// m reducing to 0 mod N cannot happen for realistic escrow segment
		// sizes, but guard rather than divide-by-zero downstream.
		return 0, ErrDLogNotFound
	}
	giantStep := g.ScalarMult(mScalar)
	// giantStep currently = m*G; giant steps subtract multiples of it from target.
	gamma := target
	for i := uint64(0); i <= rangeSize/m+1; i++ {
		if j, ok := babySteps[string(gamma.CompressedBytes())]; ok {
			x := i*m + j
			if x < rangeSize {
				return x, nil
			}
		}
		gamma = gamma.Add(negate(giantStep))
	}
	return 0, ErrDLogNotFound
}

func zeroPoint() *curve.Point {
	g := curve.BasePoint()
	return g.Add(negate(g))
}

func negate(p *curve.Point) *curve.Point {
	// -P has the same X and the negated Y; reconstruct via scalar
	// multiplication by (N-1), which is equivalent and avoids touching
	// internal field representations directly.
	nMinus1 := new(big.Int).Sub(curve.Order, big.NewInt(1))
	s, err := curve.ScalarFromBigInt(nMinus1)
	if err != nil {
		panic("primitives: N-1 must be a valid non-zero scalar")
	}
	return p.ScalarMult(s)
}

func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

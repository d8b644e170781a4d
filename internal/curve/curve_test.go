package curve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarAddMulRoundtrip(t *testing.T) {
	a, err := RandomScalar()
	require.NoError(t, err)
	b, err := RandomScalar()
	require.NoError(t, err)

	sum := a.Add(b)
	require.False(t, sum.IsZero() && !a.Add(b).IsZero())

	inv := b.Inverse()
	one := b.Mul(inv)
	require.Equal(t, ScalarBaseMult(one).CompressedBytes(), BasePoint().CompressedBytes())
}

func TestScalarBaseMultDistributesOverAdd(t *testing.T) {
	a, err := RandomScalar()
	require.NoError(t, err)
	b, err := RandomScalar()
	require.NoError(t, err)

	lhs := ScalarBaseMult(a.Add(b))
	rhs := ScalarBaseMult(a).Add(ScalarBaseMult(b))

	require.Equal(t, lhs.CompressedBytes(), rhs.CompressedBytes())
}

func TestPointCompressedRoundtrip(t *testing.T) {
	s, err := RandomScalar()
	require.NoError(t, err)
	p := ScalarBaseMult(s)

	decoded, err := PointFromCompressed(p.CompressedBytes())
	require.NoError(t, err)
	require.Equal(t, p.CompressedBytes(), decoded.CompressedBytes())
}

func TestScalarFromBigEndianRejectsZero(t *testing.T) {
	_, err := ScalarFromBigEndian(make([]byte, 32))
	require.Error(t, err)
}

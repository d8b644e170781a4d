package keyshare

import (
	"math/big"
	"testing"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/stretchr/testify/require"
)

func fixtureMasterKey(t *testing.T) (*MasterKey2, *curve.Scalar) {
	t.Helper()
	x1, err := curve.ScalarFromBigInt(big.NewInt(123456789))
	require.NoError(t, err)
	x2, err := curve.ScalarFromBigInt(big.NewInt(987654321))
	require.NoError(t, err)

	sk, err := primitives.GeneratePaillierKeypair()
	require.NoError(t, err)
	cKey, err := primitives.Encrypt(sk.Public, x1.BigInt())
	require.NoError(t, err)

	p1 := curve.ScalarBaseMult(x1)
	return NewMasterKey2(x2, p1, sk.Public, cKey), x1
}

func TestNewMasterKey2JointPublicKeyIsMultiplicative(t *testing.T) {
	mk, x1 := fixtureMasterKey(t)

	want := curve.ScalarBaseMult(x1.Mul(mk.Private.X2))
	require.Equal(t, want.CompressedBytes(), mk.Public.Q.CompressedBytes())
}

func TestDeriveChildKeyPreservesServerShare(t *testing.T) {
	mk, x1 := fixtureMasterKey(t)
	var chainCode [32]byte
	for i := range chainCode {
		chainCode[i] = byte(i)
	}

	child, _, err := mk.DeriveChildKey(0, chainCode)
	require.NoError(t, err)

	// P1 (the server's public share) is untouched by derivation.
	require.Equal(t, mk.Public.P1.CompressedBytes(), child.Public.P1.CompressedBytes())

	// The joint public key still factors as x1 * x2' * G for the same x1.
	want := curve.ScalarBaseMult(x1.Mul(child.Private.X2))
	require.Equal(t, want.CompressedBytes(), child.Public.Q.CompressedBytes())
}

func TestDeriveChildKeyIsDeterministic(t *testing.T) {
	mk, _ := fixtureMasterKey(t)
	var chainCode [32]byte
	for i := range chainCode {
		chainCode[i] = byte(i)
	}

	child1, cc1, err := mk.DeriveChildKey(5, chainCode)
	require.NoError(t, err)
	child2, cc2, err := mk.DeriveChildKey(5, chainCode)
	require.NoError(t, err)

	require.Equal(t, child1.Public.Q.CompressedBytes(), child2.Public.Q.CompressedBytes())
	require.Equal(t, cc1, cc2)
}

func TestDeriveChildKeyRejectsHardenedIndex(t *testing.T) {
	mk, _ := fixtureMasterKey(t)
	var chainCode [32]byte

	_, _, err := mk.DeriveChildKey(hardenedKeyStart, chainCode)
	require.ErrorIs(t, err, ErrInvalidChildIndex)
}

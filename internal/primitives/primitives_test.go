package primitives

import (
	"math/big"
	"testing"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/stretchr/testify/require"
)

func TestPaillierEncryptDecryptRoundtrip(t *testing.T) {
	sk, err := GeneratePaillierKeypair()
	require.NoError(t, err)

	m := big.NewInt(42424242)
	ct, err := Encrypt(sk.Public, m)
	require.NoError(t, err)

	got := Decrypt(sk, ct)
	require.Equal(t, 0, m.Cmp(got))
}

func TestPaillierHomomorphicAdd(t *testing.T) {
	sk, err := GeneratePaillierKeypair()
	require.NoError(t, err)

	a := big.NewInt(111)
	b := big.NewInt(222)

	ca, err := Encrypt(sk.Public, a)
	require.NoError(t, err)
	cb, err := Encrypt(sk.Public, b)
	require.NoError(t, err)

	sum := HomomorphicAdd(sk.Public, ca, cb)
	got := Decrypt(sk, sum)
	require.Equal(t, big.NewInt(333), got)
}

func TestPaillierHomomorphicMulPlain(t *testing.T) {
	sk, err := GeneratePaillierKeypair()
	require.NoError(t, err)

	ca, err := Encrypt(sk.Public, big.NewInt(7))
	require.NoError(t, err)

	scaled := HomomorphicMulPlain(sk.Public, ca, big.NewInt(6))
	got := Decrypt(sk, scaled)
	require.Equal(t, big.NewInt(42), got)
}

func TestCommitmentOpenRoundtrip(t *testing.T) {
	s, err := curve.RandomScalar()
	require.NoError(t, err)
	p := curve.ScalarBaseMult(s)

	c, w, err := Commit(p)
	require.NoError(t, err)
	require.NoError(t, Open(c, w))
}

func TestCommitmentRejectsWrongOpening(t *testing.T) {
	s1, err := curve.RandomScalar()
	require.NoError(t, err)
	s2, err := curve.RandomScalar()
	require.NoError(t, err)

	c, _, err := Commit(curve.ScalarBaseMult(s1))
	require.NoError(t, err)

	_, w2, err := Commit(curve.ScalarBaseMult(s2))
	require.NoError(t, err)

	require.Error(t, Open(c, w2))
}

func TestDLogProofRoundtrip(t *testing.T) {
	x, err := curve.RandomScalar()
	require.NoError(t, err)
	y := curve.ScalarBaseMult(x)

	proof, err := ProveDLog(x, y)
	require.NoError(t, err)
	require.NoError(t, VerifyDLog(proof, y))
}

func TestDLogProofRejectsWrongPoint(t *testing.T) {
	x, err := curve.RandomScalar()
	require.NoError(t, err)
	y := curve.ScalarBaseMult(x)

	other, err := curve.RandomScalar()
	require.NoError(t, err)

	proof, err := ProveDLog(x, y)
	require.NoError(t, err)
	require.Error(t, VerifyDLog(proof, curve.ScalarBaseMult(other)))
}

func TestCoinFlipAgreesOnSameValue(t *testing.T) {
	aCommit, aLocal, err := CoinFlipFirstRound()
	require.NoError(t, err)
	bCommit, bLocal, err := CoinFlipFirstRound()
	require.NoError(t, err)

	aReveal := CoinFlipReveal(aLocal)
	bReveal := CoinFlipReveal(bLocal)

	aResult, err := CoinFlipFinalize(aLocal, bCommit, bReveal)
	require.NoError(t, err)
	bResult, err := CoinFlipFinalize(bLocal, aCommit, aReveal)
	require.NoError(t, err)

	require.Equal(t, aResult, bResult)
}

func TestCoinFlipRejectsBadReveal(t *testing.T) {
	_, aLocal, err := CoinFlipFirstRound()
	require.NoError(t, err)
	bCommit, _, err := CoinFlipFirstRound()
	require.NoError(t, err)

	forged := &CoinFlipSecondMessage{Seed: [32]byte{1, 2, 3}}
	_, err = CoinFlipFinalize(aLocal, bCommit, forged)
	require.Error(t, err)
}

func TestSolveSmallDLogFindsValue(t *testing.T) {
	const want = uint64(173)
	s, err := curve.ScalarFromBigInt(big.NewInt(int64(want)))
	require.NoError(t, err)
	target := curve.ScalarBaseMult(s)

	got, err := SolveSmallDLog(target, 256)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// Package primitives implements the cryptographic building blocks the
// 2P-ECDSA protocol composes but does not itself define: Paillier
// encryption, hash-based (SHA-256) commitments, a Schnorr discrete-log proof, a
// commit-and-reveal coin flip, and a small-range baby-step/giant-step
// discrete logarithm solver. None of these have an available Go library in
// the retrieved reference pack (see DESIGN.md); each is built directly on
// math/big and internal/curve, the way the client composes them from the
// opaque `kms`/`zk-paillier` crates in the system this protocol is modeled
// on.
package primitives

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// PaillierKeyBits is the RSA modulus size used for the key-generation
// server's Paillier keypair.
const PaillierKeyBits = 2048

// PaillierPublicKey is an (N, N^2) Paillier public key.
type PaillierPublicKey struct {
	N    *big.Int
	NSq  *big.Int
}

// PaillierPrivateKey is a Paillier private key using the simplified
// g = N+1 generator, so decryption needs only lambda = (p-1)(q-1) and mu = lambda^-1 mod N.
type PaillierPrivateKey struct {
	Public *PaillierPublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// GeneratePaillierKeypair generates a fresh Paillier keypair with two
// PaillierKeyBits/2-bit primes.
func GeneratePaillierKeypair() (*PaillierPrivateKey, error) {
	half := PaillierKeyBits / 2
	for {
		p, err := rand.Prime(rand.Reader, half)
		if err != nil {
			return nil, fmt.Errorf("primitives: generate p: %w", err)
		}
		q, err := rand.Prime(rand.Reader, half)
		if err != nil {
			return nil, fmt.Errorf("primitives: generate q: %w", err)
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		nSq := new(big.Int).Mul(n, n)

		pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
		qMinus1 := new(big.Int).Sub(q, big.NewInt(1))
		gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
		lambda := new(big.Int).Div(new(big.Int).Mul(pMinus1, qMinus1), gcd)

		mu := new(big.Int).ModInverse(lambda, n)
		if mu == nil {
			continue
		}

		pub := &PaillierPublicKey{N: n, NSq: nSq}
		return &PaillierPrivateKey{Public: pub, Lambda: lambda, Mu: mu}, nil
	}
}

// Ciphertext is a Paillier ciphertext. It does not carry the encryption
// randomness; EncryptR returns that separately.
type Ciphertext struct {
	C *big.Int
}

// Encrypt encrypts m under pk using fresh randomness, g = N+1.
func Encrypt(pk *PaillierPublicKey, m *big.Int) (*Ciphertext, error) {
	ct, _, err := EncryptR(pk, m)
	return ct, err
}

// EncryptR encrypts m under pk using fresh randomness and returns that
// randomness alongside the ciphertext, for callers (e.g. ProvePaillierKey)
// that must later prove a statement about how the ciphertext was formed.
func EncryptR(pk *PaillierPublicKey, m *big.Int) (*Ciphertext, *big.Int, error) {
	r, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: sample paillier randomness: %w", err)
	}
	for r.Sign() == 0 {
		r, err = rand.Int(rand.Reader, pk.N)
		if err != nil {
			return nil, nil, err
		}
	}
	ct, err := EncryptWithRandomness(pk, m, r)
	if err != nil {
		return nil, nil, err
	}
	return ct, r, nil
}

// EncryptWithRandomness encrypts m under pk using the given randomness r.
// c = (1 + m*N) * r^N mod N^2, the standard optimization for g = N+1.
func EncryptWithRandomness(pk *PaillierPublicKey, m, r *big.Int) (*Ciphertext, error) {
	mMod := new(big.Int).Mod(m, pk.N)
	gm := new(big.Int).Add(big.NewInt(1), new(big.Int).Mul(mMod, pk.N))
	gm.Mod(gm, pk.NSq)

	rn := new(big.Int).Exp(r, pk.N, pk.NSq)

	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, pk.NSq)
	return &Ciphertext{C: c}, nil
}

// Decrypt recovers the plaintext m encrypted in ct.
func Decrypt(sk *PaillierPrivateKey, ct *Ciphertext) *big.Int {
	n := sk.Public.N
	nSq := sk.Public.NSq

	cLambda := new(big.Int).Exp(ct.C, sk.Lambda, nSq)
	l := lFunction(cLambda, n)

	m := new(big.Int).Mul(l, sk.Mu)
	m.Mod(m, n)
	return m
}

func lFunction(x, n *big.Int) *big.Int {
	num := new(big.Int).Sub(x, big.NewInt(1))
	return new(big.Int).Div(num, n)
}

// HomomorphicAdd returns Enc(m1+m2) given Enc(m1) and Enc(m2), without
// decrypting either.
func HomomorphicAdd(pk *PaillierPublicKey, a, b *Ciphertext) *Ciphertext {
	c := new(big.Int).Mul(a.C, b.C)
	c.Mod(c, pk.NSq)
	return &Ciphertext{C: c}
}

// HomomorphicMulPlain returns Enc(m*k) given Enc(m) and a plaintext scalar k.
func HomomorphicMulPlain(pk *PaillierPublicKey, ct *Ciphertext, k *big.Int) *Ciphertext {
	kMod := new(big.Int).Mod(k, pk.N)
	c := new(big.Int).Exp(ct.C, kMod, pk.NSq)
	return &Ciphertext{C: c}
}

// ErrInvalidCiphertext describes a ciphertext that is not coprime to N^2.
// No function in this package checks coprimality or returns it.
var ErrInvalidCiphertext = errors.New("primitives: ciphertext not in Z*_{N^2}")

package mpc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/lindellwallet/client/internal/config"
	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/stretchr/testify/require"
)

// fakeServer plays the co-signing server's role in tests: it holds x1 and
// the Paillier keypair, and answers each endpoint the way a real server
// would, letting the client-side protocol code in this package be
// exercised end to end without a network. Paths are matched by
// prefix/suffix since the session id embedded in every round-two-and-later
// path is the one this server itself assigned in round one.
type fakeServer struct {
	x1          *curve.Scalar
	p1          *curve.Point
	paillierKey *primitives.PaillierPrivateKey

	keygenWitness  *primitives.Witness
	chainCodeLocal *primitives.CoinFlipLocalSeed
	rotateLocal    *primitives.CoinFlipLocalSeed

	signK1 *curve.Scalar
	signR1 *curve.Point
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	x1, err := curve.RandomScalar()
	require.NoError(t, err)
	paillierKey, err := primitives.GeneratePaillierKeypair()
	require.NoError(t, err)

	return &fakeServer{
		x1:          x1,
		p1:          curve.ScalarBaseMult(x1),
		paillierKey: paillierKey,
	}
}

func (s *fakeServer) Post(ctx context.Context, path string, out any) error {
	return s.handle(path, nil, out)
}

func (s *fakeServer) Postb(ctx context.Context, path string, body any, out any) error {
	return s.handle(path, body, out)
}

func (s *fakeServer) handle(path string, body any, out any) error {
	switch {
	case path == "ecdsa/keygen/first":
		return s.handleKeygenFirst(out)
	case strings.HasPrefix(path, "ecdsa/keygen/") && strings.HasSuffix(path, "/chaincode/first"):
		return s.handleChainCodeFirst(out)
	case strings.HasPrefix(path, "ecdsa/keygen/") && strings.HasSuffix(path, "/chaincode/second"):
		return s.handleChainCodeSecond(body, out)
	case strings.HasPrefix(path, "ecdsa/keygen/") && strings.HasSuffix(path, "/second"):
		return s.handleKeygenSecond(out)
	case strings.HasPrefix(path, "ecdsa/sign/") && strings.HasSuffix(path, "/first"):
		return s.handleSignFirst(out)
	case strings.HasPrefix(path, "ecdsa/sign/") && strings.HasSuffix(path, "/second"):
		return s.handleSignSecond(body, out)
	case strings.HasPrefix(path, "ecdsa/rotate/") && strings.HasSuffix(path, "/first"):
		return s.handleRotateFirst(out)
	case strings.HasPrefix(path, "ecdsa/rotate/") && strings.HasSuffix(path, "/second"):
		return s.handleRotateSecond(body, out)
	case strings.HasSuffix(path, "/recover"):
		return encodeInto(out, uint32(0))
	default:
		return fmt.Errorf("fakeServer: unhandled path %q", path)
	}
}

func (s *fakeServer) handleKeygenFirst(out any) error {
	commitment, witness, err := primitives.Commit(s.p1)
	if err != nil {
		return err
	}
	s.keygenWitness = witness
	return encodeInto(out, keyGenFirstMsgResp{ID: "session-1", PkCommitment: encodeCommitment(commitment)})
}

func (s *fakeServer) handleKeygenSecond(out any) error {
	proof, err := primitives.ProveDLog(s.x1, s.p1)
	if err != nil {
		return err
	}

	cKey, r, err := primitives.EncryptR(s.paillierKey.Public, s.x1.BigInt())
	if err != nil {
		return err
	}

	keyProof, err := primitives.ProvePaillierKey(s.paillierKey.Public, cKey, r, s.x1, s.p1, config.SaltString)
	if err != nil {
		return err
	}

	return encodeInto(out, keyGenSecondMsgResp{
		Decommit:      encodeDecommit(s.keygenWitness),
		P1:            encodePoint(s.p1),
		Proof:         encodeDLogProof(proof),
		PaillierN:     encodeBigInt(s.paillierKey.Public.N),
		CKey:          encodeBigInt(cKey.C),
		PaillierProof: encodePaillierKeyProof(keyProof),
	})
}

func (s *fakeServer) handleChainCodeFirst(out any) error {
	commitment, local, err := primitives.ChainCodeFirstRound()
	if err != nil {
		return err
	}
	s.chainCodeLocal = local
	return encodeInto(out, chainCodeFirstResp{Commitment: encodeCommitment(&primitives.Commitment{Hash: commitment.Commitment})})
}

func (s *fakeServer) handleChainCodeSecond(body any, out any) error {
	if _, err := decodeSeedField(body); err != nil {
		return err
	}
	reveal := primitives.ChainCodeReveal(s.chainCodeLocal)
	return encodeInto(out, chainCodeSecondResp{Seed: hex.EncodeToString(reveal.Seed[:])})
}

func (s *fakeServer) handleSignFirst(out any) error {
	k1, err := curve.RandomScalar()
	if err != nil {
		return err
	}
	s.signK1 = k1
	s.signR1 = curve.ScalarBaseMult(k1)
	proof, err := primitives.ProveDLog(k1, s.signR1)
	if err != nil {
		return err
	}
	return encodeInto(out, signFirstMsgResp{R1: encodePoint(s.signR1), Proof: encodeDLogProof(proof)})
}

func (s *fakeServer) handleSignSecond(body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	var payload struct {
		R  BigIntDTO `json:"r"`
		C3 BigIntDTO `json:"c3"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	c3Val, err := payload.C3.decode()
	if err != nil {
		return err
	}

	sTag := primitives.Decrypt(s.paillierKey, &primitives.Ciphertext{C: c3Val})
	sTag.Mod(sTag, curve.Order)

	sTagScalar, err := curve.ScalarFromBigInt(sTag)
	if err != nil {
		return err
	}
	finalS := sTagScalar.Mul(s.signK1.Inverse())

	return encodeInto(out, signSecondMsgResp{
		R:          payload.R,
		S:          encodeBigInt(finalS.BigInt()),
		RecoveryID: 0,
	})
}

func (s *fakeServer) handleRotateFirst(out any) error {
	commitment, local, err := primitives.CoinFlipFirstRound()
	if err != nil {
		return err
	}
	s.rotateLocal = local
	return encodeInto(out, rotateFirstMsgResp{Commitment: encodeCommitment(&primitives.Commitment{Hash: commitment.Commitment})})
}

func (s *fakeServer) handleRotateSecond(body any, out any) error {
	clientSeed, err := decodeSeedField(body)
	if err != nil {
		return err
	}
	if len(clientSeed) != 32 {
		return fmt.Errorf("fakeServer: bad rotation seed length %d", len(clientSeed))
	}

	reveal := primitives.CoinFlipReveal(s.rotateLocal)

	var joint [32]byte
	for i := range joint {
		joint[i] = s.rotateLocal.Seed[i] ^ clientSeed[i]
	}
	r1, err := curve.ScalarFromBigEndian(joint[:])
	if err != nil {
		return err
	}

	newX1 := s.x1.Mul(r1)
	p1Prime := s.p1.ScalarMult(r1)

	newCKey, r, err := primitives.EncryptR(s.paillierKey.Public, newX1.BigInt())
	if err != nil {
		return err
	}
	keyProof, err := primitives.ProvePaillierKey(s.paillierKey.Public, newCKey, r, newX1, p1Prime, config.SaltString)
	if err != nil {
		return err
	}

	return encodeInto(out, rotateSecondMsgResp{
		Seed:          hex.EncodeToString(reveal.Seed[:]),
		CKey:          encodeBigInt(newCKey.C),
		PaillierProof: encodePaillierKeyProof(keyProof),
	})
}

func decodeSeedField(body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Seed string `json:"seed"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return hex.DecodeString(payload.Seed)
}

func encodeInto(out any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func TestGenerateKeyAssemblesValidMasterKey(t *testing.T) {
	server := newFakeServer(t)
	share, err := GenerateKey(context.Background(), server)
	require.NoError(t, err)
	require.Equal(t, "session-1", share.ID)

	mk, err := fromWireMasterKey(share.MasterKey)
	require.NoError(t, err)

	want := server.p1.ScalarMult(mk.Private.X2)
	require.Equal(t, want.CompressedBytes(), mk.Public.Q.CompressedBytes())
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	server := newFakeServer(t)
	share, err := GenerateKey(context.Background(), server)
	require.NoError(t, err)
	mk, err := fromWireMasterKey(share.MasterKey)
	require.NoError(t, err)

	hashBytes := make([]byte, 32)
	_, err = rand.Read(hashBytes)
	require.NoError(t, err)
	messageHash := new(big.Int).SetBytes(hashBytes)

	sig, err := Sign(context.Background(), server, share.ID, 0, mk, messageHash)
	require.NoError(t, err)
	require.NoError(t, VerifySignature(mk.Public.Q, messageHash, sig))
}

func TestRotatePreservesJointPublicKey(t *testing.T) {
	server := newFakeServer(t)
	share, err := GenerateKey(context.Background(), server)
	require.NoError(t, err)
	mk, err := fromWireMasterKey(share.MasterKey)
	require.NoError(t, err)

	rotated, err := RotatePrivateShare(context.Background(), server, share.ID, mk)
	require.NoError(t, err)
	require.Equal(t, mk.Public.Q.CompressedBytes(), rotated.Public.Q.CompressedBytes())
}

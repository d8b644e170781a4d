package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// CoinFlipFirstMessage is the first party's commitment to its random seed
// in a two-round commit-and-reveal coin flip, used by keygen to agree on
// unbiased joint randomness (e.g. the session's chain-code seed).
type CoinFlipFirstMessage struct {
	Commitment [32]byte
}

// CoinFlipSecondMessage reveals the seed committed to in the first message.
type CoinFlipSecondMessage struct {
	Seed [32]byte
}

// CoinFlipLocalSeed is the flipping party's private state between rounds.
type CoinFlipLocalSeed struct {
	Seed [32]byte
}

// CoinFlipFirstRound samples a random seed and commits to it.
func CoinFlipFirstRound() (*CoinFlipFirstMessage, *CoinFlipLocalSeed, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, nil, fmt.Errorf("primitives: sample coin-flip seed: %w", err)
	}
	return &CoinFlipFirstMessage{Commitment: hashSeed(seed)}, &CoinFlipLocalSeed{Seed: seed}, nil
}

// CoinFlipReveal reveals the local seed for transmission in round two.
func CoinFlipReveal(local *CoinFlipLocalSeed) *CoinFlipSecondMessage {
	return &CoinFlipSecondMessage{Seed: local.Seed}
}

// CoinFlipFinalize verifies the counterparty's reveal against its
// commitment and combines both seeds (XOR) into the agreed joint value.
func CoinFlipFinalize(local *CoinFlipLocalSeed, peerCommitment *CoinFlipFirstMessage, peerReveal *CoinFlipSecondMessage) ([32]byte, error) {
	if hashSeed(peerReveal.Seed) != peerCommitment.Commitment {
		return [32]byte{}, fmt.Errorf("primitives: coin-flip reveal does not match commitment")
	}
	var out [32]byte
	for i := range out {
		out[i] = local.Seed[i] ^ peerReveal.Seed[i]
	}
	return out, nil
}

func hashSeed(seed [32]byte) [32]byte {
	h := sha256.Sum256(seed[:])
	return h
}

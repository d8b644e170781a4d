package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/lindellwallet/client/internal/curve"
)

// Commitment is a hiding, binding commitment to a curve point, built as
// H(point || blind) the way the keygen round commits to the server's P1
// before revealing it.
type Commitment struct {
	Hash [32]byte
}

// Witness holds the opening of a Commitment.
type Witness struct {
	Point *curve.Point
	Blind [32]byte
}

// Commit produces a Commitment/Witness pair for p.
func Commit(p *curve.Point) (*Commitment, *Witness, error) {
	var blind [32]byte
	if _, err := rand.Read(blind[:]); err != nil {
		return nil, nil, fmt.Errorf("primitives: sample commitment blind: %w", err)
	}
	h := hashCommitment(p, blind)
	return &Commitment{Hash: h}, &Witness{Point: p, Blind: blind}, nil
}

// Open verifies that w opens c.
func Open(c *Commitment, w *Witness) error {
	h := hashCommitment(w.Point, w.Blind)
	if h != c.Hash {
		return errors.New("primitives: commitment does not open")
	}
	return nil
}

func hashCommitment(p *curve.Point, blind [32]byte) [32]byte {
	h := sha256.New()
	h.Write(p.CompressedBytes())
	h.Write(blind[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

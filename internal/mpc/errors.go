package mpc

import "errors"

// Named protocol failure modes. Wrapped via fmt.Errorf("...: %w", ErrX) at
// each failure site so callers can match with errors.Is while the error
// string stays grep-discoverable on its own.
var (
	// ErrKeygenAborted is returned when the server's keygen reply is
	// malformed or the session cannot proceed (grounded on
	// original_source/src/ecdsa/keygen.rs's KeyGenAborted variant).
	ErrKeygenAborted = errors.New("keygen-aborted")
	// ErrKeygenInvalidProof is returned when the server's P1 commitment
	// opening, DLog proof, or Paillier key proof fails to verify.
	ErrKeygenInvalidProof = errors.New("keygen-invalid-proof")

	// ErrSignAborted is returned when the server's ephemeral-key message
	// cannot be used to continue the sign dialog.
	ErrSignAborted = errors.New("sign-aborted")
	// ErrSignMalformedReply is returned when the server's completed
	// signature fails local verification against the joint public key.
	ErrSignMalformedReply = errors.New("sign-malformed-reply")

	// ErrRotationAborted is returned when the server's rotation message
	// cannot be used to continue the rotation dialog.
	ErrRotationAborted = errors.New("rotation-aborted")
	// ErrRotationInvalidProof is returned when the server's range proof on
	// the re-encrypted share fails to verify.
	ErrRotationInvalidProof = errors.New("rotation-invalid-proof")
)

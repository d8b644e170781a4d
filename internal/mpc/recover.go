package mpc

import (
	"context"
	"fmt"

	"github.com/lindellwallet/client/internal/transport"
)

// minRecoverPos is the floor applied to the server-reported last-derived
// position during recovery: spec'd as pos_old := max(pos_old, 10), so a
// wallet recovered after very little use still re-derives a reasonable
// buffer of addresses rather than just the handful actually used.
const minRecoverPos = 10

// RecoverShare asks the server for the last-known derivation position of
// walletID, the one piece of state it still needs to disclose to rehydrate
// a lost client: ecdsa/{id}/recover returns a bare position, nothing else.
// The client reconstructs the rest of its MasterKey2 entirely from its
// escrow backup (escrow.RecoverClientShare), never from the server, per
// original_source/src/ecdsa/recover.rs and src/wallet/mod.rs's
// recover_and_save_share.
func RecoverShare(ctx context.Context, rq transport.Requester, walletID string) (uint32, error) {
	var posOld uint32
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/%s/recover", walletID), map[string]string{"id": walletID}, &posOld); err != nil {
		return 0, fmt.Errorf("mpc: recover share: %w", err)
	}

	if posOld < minRecoverPos {
		posOld = minRecoverPos
	}
	return posOld, nil
}

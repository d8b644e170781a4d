package escrow

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/stretchr/testify/require"
)

func fixtureMasterKey(t *testing.T) *keyshare.MasterKey2 {
	t.Helper()
	x1, err := curve.RandomScalar()
	require.NoError(t, err)
	x2, err := curve.RandomScalar()
	require.NoError(t, err)
	paillierKey, err := primitives.GeneratePaillierKeypair()
	require.NoError(t, err)
	cKey, err := primitives.Encrypt(paillierKey.Public, x1.BigInt())
	require.NoError(t, err)
	p1 := curve.ScalarBaseMult(x1)
	return keyshare.NewMasterKey2(x2, p1, paillierKey.Public, cKey)
}

func TestBackupVerifyRecoverRoundtrip(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)
	mk := fixtureMasterKey(t)

	var chainCode [32]byte
	chainCode[0] = 0x42

	backup, err := BackupClientMK(esc.Public, mk, chainCode, "session-1")
	require.NoError(t, err)
	require.NoError(t, VerifyClientBackup(esc.Public, backup))

	recovered, err := RecoverClientShare(esc.Secret, backup)
	require.NoError(t, err)
	require.Equal(t, mk.Private.X2.BigInt(), recovered.Private.X2.BigInt())
	require.Equal(t, mk.Public.Q.CompressedBytes(), recovered.Public.Q.CompressedBytes())
}

func TestVerifyRejectsTamperedCiphertext(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)
	mk := fixtureMasterKey(t)

	var chainCode [32]byte
	backup, err := BackupClientMK(esc.Public, mk, chainCode, "session-1")
	require.NoError(t, err)

	otherRandomness, err := curve.RandomScalar()
	require.NoError(t, err)
	backup.Encryptions[0].A = curve.ScalarBaseMult(otherRandomness)

	require.Error(t, VerifyClientBackup(esc.Public, backup))
}

func TestVerifyRejectsWrongEscrowKey(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)
	wrongEsc, err := NewEscrow()
	require.NoError(t, err)
	mk := fixtureMasterKey(t)

	var chainCode [32]byte
	backup, err := BackupClientMK(esc.Public, mk, chainCode, "session-1")
	require.NoError(t, err)

	require.Error(t, VerifyClientBackup(wrongEsc.Public, backup))
}

func TestRecoverRejectsWrongEscrowSecret(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)
	wrongEsc, err := NewEscrow()
	require.NoError(t, err)
	mk := fixtureMasterKey(t)

	var chainCode [32]byte
	backup, err := BackupClientMK(esc.Public, mk, chainCode, "session-1")
	require.NoError(t, err)

	_, err = RecoverClientShare(wrongEsc.Secret, backup)
	require.Error(t, err)
}

func TestBackupJSONRoundtrip(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)
	mk := fixtureMasterKey(t)

	var chainCode [32]byte
	chainCode[31] = 0x07
	backup, err := BackupClientMK(esc.Public, mk, chainCode, "session-xyz")
	require.NoError(t, err)

	raw, err := json.Marshal(backup)
	require.NoError(t, err)

	var decoded Backup
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "session-xyz", decoded.ID)
	require.Equal(t, chainCode, decoded.ChainCode)
	require.NoError(t, VerifyClientBackup(esc.Public, &decoded))

	recovered, err := RecoverClientShare(esc.Secret, &decoded)
	require.NoError(t, err)
	require.Equal(t, mk.Private.X2.BigInt(), recovered.Private.X2.BigInt())
}

func TestEncryptHandlesZeroSegments(t *testing.T) {
	esc, err := NewEscrow()
	require.NoError(t, err)

	x2, err := curve.ScalarFromBigInt(big.NewInt(256)) // low byte is zero
	require.NoError(t, err)
	p2 := curve.ScalarBaseMult(x2)

	cts, openings, err := Encrypt(esc.Public, x2)
	require.NoError(t, err)
	proof, err := Prove(esc.Public, p2, cts, openings)
	require.NoError(t, err)
	require.NoError(t, Verify(esc.Public, p2, cts, proof))

	recovered, err := Decrypt(esc.Secret, cts)
	require.NoError(t, err)
	require.Equal(t, x2.BigInt(), recovered.BigInt())
}

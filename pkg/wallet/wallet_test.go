package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealTestKey(t *testing.T, p *KeystoreProvider) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	nonce := make([]byte, 12)
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}
	cred, err := p.Seal(crypto.FromECDSA(key), nonce)
	require.NoError(t, err)
	return cred, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestHandleFor_RoundTrip(t *testing.T) {
	p, err := NewKeystoreProvider("unit-test-master-secret")
	require.NoError(t, err)

	cred, wantAddr := sealTestKey(t, p)
	handle, err := p.HandleFor(cred)
	require.NoError(t, err)
	assert.Equal(t, wantAddr, handle.Address().Hex())

	digest := crypto.Keccak256([]byte("payload"))
	sig, err := handle.SignHash(digest)
	require.NoError(t, err)
	assert.Len(t, sig, 65)
}

func TestHandleFor_BadCredential(t *testing.T) {
	p, err := NewKeystoreProvider("unit-test-master-secret")
	require.NoError(t, err)

	for _, cred := range []string{"", "zz", "00112233", "0xdeadbeef"} {
		_, err := p.HandleFor(cred)
		assert.ErrorIs(t, err, ErrUnavailable, "credential %q", cred)
	}
}

func TestHandleFor_WrongMasterSecret(t *testing.T) {
	sealer, err := NewKeystoreProvider("secret-a")
	require.NoError(t, err)
	opener, err := NewKeystoreProvider("secret-b")
	require.NoError(t, err)

	cred, _ := sealTestKey(t, sealer)
	_, err = opener.HandleFor(cred)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewKeystoreProvider_EmptySecret(t *testing.T) {
	_, err := NewKeystoreProvider("   ")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSignHash_RequiresDigest(t *testing.T) {
	p, err := NewKeystoreProvider("unit-test-master-secret")
	require.NoError(t, err)
	cred, _ := sealTestKey(t, p)
	handle, err := p.HandleFor(cred)
	require.NoError(t, err)

	_, err = handle.SignHash([]byte("short"))
	assert.Error(t, err)
}

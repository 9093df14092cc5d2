package claim

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	holder := crypto.PubkeyToAddress(key.PublicKey)

	c := Claim{
		EventID:      "7b2602b8-0b48-4b72-a383-6df7bbb6a683",
		TicketHolder: holder,
		TierID:       1,
		Nonce:        0,
		Deadline:     1_900_000_000,
	}

	sig, err := Sign(c, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	signer, err := RecoverSigner(c, sig)
	require.NoError(t, err)
	assert.Equal(t, holder, signer)
}

func TestRecoverRejectsTamperedFields(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	holder := crypto.PubkeyToAddress(key.PublicKey)

	base := Claim{
		EventID:      "7b2602b8-0b48-4b72-a383-6df7bbb6a683",
		TicketHolder: holder,
		TierID:       1,
		Nonce:        4,
		Deadline:     1_900_000_000,
	}
	sig, err := Sign(base, key)
	require.NoError(t, err)

	tampered := []Claim{
		{EventID: "11111111-2222-3333-4444-555555555555", TicketHolder: holder, TierID: 1, Nonce: 4, Deadline: base.Deadline},
		{EventID: base.EventID, TicketHolder: holder, TierID: 2, Nonce: 4, Deadline: base.Deadline},
		{EventID: base.EventID, TicketHolder: holder, TierID: 1, Nonce: 5, Deadline: base.Deadline},
		{EventID: base.EventID, TicketHolder: holder, TierID: 1, Nonce: 4, Deadline: base.Deadline + 1},
	}

	for _, c := range tampered {
		signer, err := RecoverSigner(c, sig)
		if err != nil {
			continue
		}
		// Recovery may succeed but must yield a different address.
		assert.NotEqual(t, holder, signer)
	}
}

func TestDomainSeparationAcrossEvents(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	holder := crypto.PubkeyToAddress(key.PublicKey)

	a := Claim{EventID: "event-a", TicketHolder: holder, TierID: 1, Nonce: 0, Deadline: 1_900_000_000}
	b := a
	b.EventID = "event-b"

	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestRecoverMalformedSignature(t *testing.T) {
	c := Claim{EventID: "event-a"}

	_, err := RecoverSigner(c, nil)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	_, err = RecoverSigner(c, make([]byte, 64))
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

func TestNormalizeAddress(t *testing.T) {
	addr, ok := NormalizeAddress("0x52908400098527886E0F7030069857D2E4169EE7")
	require.True(t, ok)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", addr)

	_, ok = NormalizeAddress("not-an-address")
	assert.False(t, ok)

	_, ok = NormalizeAddress("0x123")
	assert.False(t, ok)
}

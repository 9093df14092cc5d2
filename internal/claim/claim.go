// Package claim implements the signed redemption claim: a holder signs
// (ticketHolder, tierId, nonce, deadline) offline and a gatekeeper submits the
// signature for verification. The digest is domain-separated by event id and
// schema version so a signature for one event can never be replayed against
// another.
package claim

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SchemaVersion is baked into the domain separator. Bump it and old
// signatures stop verifying.
const SchemaVersion = "gatepass-redemption-v1"

const signatureLength = 65

var ErrMalformedSignature = errors.New("malformed signature")

// Claim is the tuple a holder signs to authorize redemption of one ticket.
// Deadline is a unix timestamp in seconds.
type Claim struct {
	EventID      string
	TicketHolder common.Address
	TierID       int64
	Nonce        int64
	Deadline     int64
}

func domainSeparator(eventID string) []byte {
	return crypto.Keccak256([]byte(SchemaVersion), []byte(eventID))
}

// Digest returns the 32-byte Keccak-256 hash a holder signs.
func Digest(c Claim) []byte {
	buf := make([]byte, 0, 32+common.AddressLength+3*8)
	buf = append(buf, domainSeparator(c.EventID)...)
	buf = append(buf, c.TicketHolder.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.TierID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.Nonce))
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.Deadline))
	return crypto.Keccak256(buf)
}

// Sign produces a 65-byte [R || S || V] signature over the claim digest.
func Sign(c Claim, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(Digest(c), key)
}

// RecoverSigner returns the address that signed the claim. Any tampered
// field, wrong nonce included, recovers a different address.
func RecoverSigner(c Claim, sig []byte) (common.Address, error) {
	if len(sig) != signatureLength {
		return common.Address{}, ErrMalformedSignature
	}
	pub, err := crypto.SigToPub(Digest(c), sig)
	if err != nil {
		return common.Address{}, ErrMalformedSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// AddressString renders an address in the stored lowercase form.
func AddressString(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// NormalizeAddress canonicalizes a 0x-hex address to its lowercase form, the
// representation stored and compared everywhere in the service.
func NormalizeAddress(s string) (string, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), true
}

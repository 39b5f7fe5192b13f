package resolver

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenIssuer mints and verifies the tokens embedded in manager approve/
// reject links. Tokens are a stateless digest of (ticket id, shared
// secret): never stored, regenerated on demand, and valid until the secret
// rotates. There is no expiry and no single-use invalidation; the consuming
// endpoint treats re-invocation on an already-closed ticket as a no-op.
type TokenIssuer struct {
	secret  string
	baseURL string
}

func NewTokenIssuer(secret, baseURL string) *TokenIssuer {
	return &TokenIssuer{secret: secret, baseURL: baseURL}
}

// Issue returns the approval token for a ticket id.
func (i *TokenIssuer) Issue(ticketID string) string {
	digest := sha256.Sum256([]byte(ticketID + ":" + i.secret))
	return hex.EncodeToString(digest[:])
}

// Verify recomputes the token and compares in constant time.
func (i *TokenIssuer) Verify(ticketID, token string) bool {
	expected := i.Issue(ticketID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// ApproveLink returns the manager-facing approval URL for a ticket.
func (i *TokenIssuer) ApproveLink(ticketID string) string {
	return fmt.Sprintf("%s/ticket/approve/%s?token=%s", i.baseURL, ticketID, i.Issue(ticketID))
}

// RejectLink returns the manager-facing rejection URL for a ticket.
func (i *TokenIssuer) RejectLink(ticketID string) string {
	return fmt.Sprintf("%s/ticket/reject/%s?token=%s", i.baseURL, ticketID, i.Issue(ticketID))
}

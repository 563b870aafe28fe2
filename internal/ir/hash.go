package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// a future algorithm change.
const (
	DomainActions    = "stakegov/actions/v1"
	DomainInvocation = "stakegov/invocation/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ActionsHash is the content hash of an ordered action list. The
// dispatcher records it alongside the outbox entries so an executor can
// verify it received the list the proposal voted on.
func ActionsHash(actions []Action) (string, error) {
	arr := make(IRArray, len(actions))
	for i, a := range actions {
		arr[i] = a.irObject()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("ActionsHash: %w", err)
	}
	return hashWithDomain(DomainActions, canonical), nil
}

// InvocationDigest hashes an invocation's content (op, sender, now, args).
// Replaying the same script yields the same digests.
func InvocationDigest(inv Invocation) (string, error) {
	args := inv.Args
	if args == nil {
		args = IRObject{}
	}
	obj := IRObject{
		"op":     IRString(inv.Op),
		"sender": IRString(inv.Sender),
		"now":    Uint(inv.Now),
		"args":   args,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InvocationDigest: %w", err)
	}
	return hashWithDomain(DomainInvocation, canonical), nil
}

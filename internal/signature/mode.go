// Package signature verifies that inbound payment callbacks were produced by the
// claimed gateway's secret. Each gateway has a verifier and a matching signer;
// the signers back the gateway simulator and the tests.
package signature

import (
	"crypto/hmac"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Mode is the signature posture of the process. It is resolved once at startup.
type Mode int

const (
	// Enforce rejects any callback whose signature cannot be verified.
	Enforce Mode = iota
	// Bypass accepts callbacks that carry no signature, or when no secret is
	// configured. A present but wrong signature is still rejected.
	// Never run production traffic in this mode.
	Bypass
)

func (m Mode) String() string {
	switch m {
	case Enforce:
		return "enforce"
	case Bypass:
		return "bypass"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "enforce" or "bypass".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enforce":
		return Enforce, nil
	case "bypass":
		return Bypass, nil
	default:
		return Enforce, fmt.Errorf("unknown signature mode %q", s)
	}
}

// tolerates reports whether a missing signature or secret is accepted under m.
func (m Mode) tolerates(sig, secret string) bool {
	return m == Bypass && (sig == "" || secret == "")
}

func hmacHex(newHash func() hash.Hash, secret string, parts ...[]byte) string {
	mac := hmac.New(newHash, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// equalHex compares two hex digests in constant time, ignoring case.
func equalHex(expected, got string) bool {
	want, err := hex.DecodeString(strings.ToLower(expected))
	if err != nil {
		return false
	}
	have, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(got)))
	if err != nil {
		return false
	}
	return hmac.Equal(want, have)
}

package signature

import (
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// OPayFields are the eight callback payload fields covered by the OPay signature.
type OPayFields struct {
	Amount        string
	Currency      string
	Reference     string
	Refunded      bool
	Status        string
	Timestamp     string
	Token         string
	TransactionID string
}

// OPayCanonical renders the fields in OPay's fixed order and formatting. The boolean is
// a bare t/f; every other field is a quoted string.
func OPayCanonical(f OPayFields) string {
	refunded := "f"
	if f.Refunded {
		refunded = "t"
	}
	return fmt.Sprintf(
		`{Amount:"%s",Currency:"%s",Reference:"%s",Refunded:%s,Status:"%s",Timestamp:"%s",Token:"%s",TransactionID:"%s"}`,
		f.Amount, f.Currency, f.Reference, refunded, f.Status, f.Timestamp, f.Token, f.TransactionID,
	)
}

// newSHA3512 adapts crypto/sha3 for crypto/hmac. SHA3-512 has a 72 byte rate, which
// hmac uses as the pad block size.
func newSHA3512() hash.Hash {
	return sha3.New512()
}

// SignOPay computes the HMAC-SHA3-512 callback signature, hex encoded.
func SignOPay(f OPayFields, secret string) string {
	return hmacHex(newSHA3512, secret, []byte(OPayCanonical(f)))
}

// VerifyOPay checks the body's sha512 field against the payload fields.
// Hex digests are compared case-insensitively.
func VerifyOPay(mode Mode, f OPayFields, sig, secret string) bool {
	if mode.tolerates(sig, secret) {
		return true
	}
	if sig == "" || secret == "" {
		return false
	}
	return equalHex(SignOPay(f, secret), sig)
}

// SignOPayRequest signs an outbound cashier API request body (HMAC-SHA512, hex).
// OPay expects it as a Bearer token.
func SignOPayRequest(body []byte, secret string) string {
	return hmacHex(sha512.New, secret, body)
}

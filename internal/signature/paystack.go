package signature

import "crypto/sha512"

// PaystackHeader carries the callback signature.
const PaystackHeader = "x-paystack-signature"

// SignPaystack computes HMAC-SHA512 over the exact raw request bytes, hex encoded.
// The raw bytes must be used: re-serializing parsed JSON can reorder keys or change
// whitespace and break the signature.
func SignPaystack(rawBody []byte, secret string) string {
	return hmacHex(sha512.New, secret, rawBody)
}

// VerifyPaystack checks the x-paystack-signature header value against the raw body.
func VerifyPaystack(mode Mode, rawBody []byte, sig, secret string) bool {
	if mode.tolerates(sig, secret) {
		return true
	}
	if sig == "" || secret == "" {
		return false
	}
	return equalHex(SignPaystack(rawBody, secret), sig)
}

package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// FlutterwaveHeader carries the callback hash.
const FlutterwaveHeader = "verif-hash"

// SignFlutterwave computes HMAC-SHA256 over the JSON-stringified payload, hex encoded.
// The body is re-serialized the way JSON.stringify prints a parsed value: no
// whitespace, key order as sent, escapes decoded and numbers in shortest form.
func SignFlutterwave(body []byte, secret string) (string, error) {
	canon, err := stringify(body)
	if err != nil {
		return "", fmt.Errorf("canonicalize flutterwave payload: %w", err)
	}
	return hmacHex(sha256.New, secret, canon), nil
}

// VerifyFlutterwave checks the verif-hash header value against body.
func VerifyFlutterwave(mode Mode, body []byte, sig, secret string) bool {
	if mode.tolerates(sig, secret) {
		return true
	}
	if sig == "" || secret == "" {
		return false
	}
	expected, err := SignFlutterwave(body, secret)
	if err != nil {
		return false
	}
	return equalHex(expected, sig)
}

func stringify(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out bytes.Buffer
	if err := writeValue(dec, &out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return out.Bytes(), nil
}

func writeValue(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		return writeContainer(dec, out, v)
	case string:
		writeString(out, v)
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return fmt.Errorf("number %s: %w", v, err)
		}
		if f == 0 {
			f = 0 // -0 prints as 0
		}
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		out.Write(b)
	case bool:
		out.WriteString(strconv.FormatBool(v))
	case nil:
		out.WriteString("null")
	}
	return nil
}

func writeContainer(dec *json.Decoder, out *bytes.Buffer, open json.Delim) error {
	out.WriteByte(byte(open))
	for i := 0; dec.More(); i++ {
		if i > 0 {
			out.WriteByte(',')
		}
		if open == '{' {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := tok.(string)
			writeString(out, key)
			out.WriteByte(':')
		}
		if err := writeValue(dec, out); err != nil {
			return err
		}
	}
	end, err := dec.Token()
	if err != nil {
		return err
	}
	out.WriteByte(byte(end.(json.Delim)))
	return nil
}

// writeString quotes s escaping only what JSON.stringify escapes.
func writeString(out *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	out.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\b':
			out.WriteString(`\b`)
		case '\f':
			out.WriteString(`\f`)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		default:
			if c < 0x20 {
				out.WriteString(`\u00`)
				out.WriteByte(hex[c>>4])
				out.WriteByte(hex[c&0xf])
				continue
			}
			out.WriteByte(c)
		}
	}
	out.WriteByte('"')
}

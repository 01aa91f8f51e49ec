// Package cosekey extracts a contract-ready raw public key from a COSE key
// map. The dispatch over (key type, algorithm) is deliberately closed: exactly
// (EC2, ES256) and (RSA, RS256) are recognized, everything else is rejected.
// Adding an algorithm is a code change, not a configuration.
package cosekey

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ldclabs/cose/iana"
)

// p256CoordinateSize is the byte width of a P-256 curve coordinate.
const p256CoordinateSize = 32

// RawPublicKey is the normalized key material handed to the wallet contract.
//
// For ES256 credentials Bytes is the 65-byte uncompressed point 0x04||x||y.
// For RS256 credentials Bytes is modulus||exponent, a non-standard
// concatenation the wallet contract cannot verify signatures against;
// Degraded is set so callers can surface the warning instead of deploying a
// signer that will never work.
type RawPublicKey struct {
	Bytes    []byte
	Kty      int64
	Alg      int64
	Degraded bool
}

// Extract decodes the first CBOR value of coseKeyCBOR as a COSE key map and
// normalizes it. Trailing bytes after the key map (authenticator extension
// data) are ignored, not an error.
func Extract(coseKeyCBOR []byte) (*RawPublicKey, error) {
	dec := cbor.NewDecoder(bytes.NewReader(coseKeyCBOR))
	var m map[int64]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, &ErrMalformedKey{Reason: "failed to decode COSE key map: " + err.Error()}
	}
	return ExtractMap(m)
}

// ExtractMap normalizes an already-decoded COSE key map.
func ExtractMap(m map[int64]interface{}) (*RawPublicKey, error) {
	kty, ok := labelInt(m, int64(iana.KeyParameterKty))
	if !ok {
		return nil, &ErrMalformedKey{Reason: "COSE key has no key type (label 1)"}
	}
	alg, ok := labelInt(m, int64(iana.KeyParameterAlg))
	if !ok {
		return nil, &ErrMalformedKey{Reason: "COSE key has no algorithm (label 3)"}
	}

	switch {
	case kty == int64(iana.KeyTypeEC2) && alg == int64(iana.AlgorithmES256):
		return extractEC2(m)
	case kty == int64(iana.KeyTypeRSA) && alg == int64(iana.AlgorithmRS256):
		return extractRSA(m)
	default:
		return nil, &ErrUnsupportedKey{Kty: kty, Alg: alg}
	}
}

func extractEC2(m map[int64]interface{}) (*RawPublicKey, error) {
	x, ok := labelBytes(m, int64(iana.EC2KeyParameterX))
	if !ok || len(x) == 0 {
		return nil, &ErrMalformedKey{Reason: "EC2 key missing x coordinate"}
	}
	y, ok := labelBytes(m, int64(iana.EC2KeyParameterY))
	if !ok || len(y) == 0 {
		return nil, &ErrMalformedKey{Reason: "EC2 key missing y coordinate"}
	}
	if len(x) > p256CoordinateSize || len(y) > p256CoordinateSize {
		return nil, &ErrMalformedKey{
			Reason: fmt.Sprintf("EC2 coordinates exceed curve width: x=%d y=%d", len(x), len(y)),
		}
	}

	// X9.62 uncompressed point: 0x04 || x || y, both coordinates left-padded
	// to the fixed curve width.
	raw := make([]byte, 1+2*p256CoordinateSize)
	raw[0] = 0x04
	copy(raw[1+p256CoordinateSize-len(x):1+p256CoordinateSize], x)
	copy(raw[1+2*p256CoordinateSize-len(y):], y)

	return &RawPublicKey{
		Bytes: raw,
		Kty:   int64(iana.KeyTypeEC2),
		Alg:   int64(iana.AlgorithmES256),
	}, nil
}

func extractRSA(m map[int64]interface{}) (*RawPublicKey, error) {
	n, ok := labelBytes(m, int64(iana.RSAKeyParameterN))
	if !ok || len(n) == 0 {
		return nil, &ErrMalformedKey{Reason: "RSA key missing modulus"}
	}
	e, ok := labelBytes(m, int64(iana.RSAKeyParameterE))
	if !ok || len(e) == 0 {
		return nil, &ErrMalformedKey{Reason: "RSA key missing exponent"}
	}

	raw := make([]byte, 0, len(n)+len(e))
	raw = append(raw, n...)
	raw = append(raw, e...)

	return &RawPublicKey{
		Bytes:    raw,
		Kty:      int64(iana.KeyTypeRSA),
		Alg:      int64(iana.AlgorithmRS256),
		Degraded: true,
	}, nil
}

// labelInt reads an integer label value. CBOR integers surface as int64 or
// uint64 depending on sign, so both are normalized here.
func labelInt(m map[int64]interface{}, label int64) (int64, bool) {
	v, ok := m[label]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return t, true
	case uint64:
		if t > 1<<62 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

func labelBytes(m map[int64]interface{}, label int64) ([]byte, bool) {
	v, ok := m[label]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

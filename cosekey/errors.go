package cosekey

import "fmt"

// ErrMalformedKey reports a COSE key map that names a supported algorithm but
// is missing or mangling a required field.
type ErrMalformedKey struct {
	Reason string
}

func (e *ErrMalformedKey) Error() string {
	return "malformed COSE key: " + e.Reason
}

// ErrUnsupportedKey reports a (key type, algorithm) pair outside the two
// supported combinations. The offending labels are carried so the caller can
// explain which authenticator produced them.
type ErrUnsupportedKey struct {
	Kty int64
	Alg int64
}

func (e *ErrUnsupportedKey) Error() string {
	return fmt.Sprintf("unsupported COSE key: kty=%d alg=%d", e.Kty, e.Alg)
}

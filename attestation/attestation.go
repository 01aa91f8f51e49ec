// Package attestation parses the CBOR attestation object returned by a
// WebAuthn registration ceremony, down to the raw COSE public key embedded in
// the authenticator data. Only the subset needed to recover a public key is
// decoded; attestation statements are carried opaquely and extensions are
// ignored.
package attestation

import (
	"github.com/fxamacker/cbor/v2"
)

// Object is the decoded top-level attestation object.
type Object struct {
	Format    string          `cbor:"fmt"`
	Statement cbor.RawMessage `cbor:"attStmt"`
	AuthData  []byte          `cbor:"authData"`
}

// Parse decodes an attestation object from its CBOR encoding.
func Parse(attObjCBOR []byte) (*Object, error) {
	var obj Object
	if err := cbor.Unmarshal(attObjCBOR, &obj); err != nil {
		return nil, &ErrMalformedAuthData{Reason: "failed to decode attestation object: " + err.Error()}
	}
	if len(obj.AuthData) == 0 {
		return nil, &ErrMalformedAuthData{Reason: "attestation object has no authData"}
	}
	return &obj, nil
}

package attestation

import (
	"encoding/binary"
	"fmt"
)

// Authenticator data layout, per https://www.w3.org/TR/webauthn/#sctn-authenticator-data:
// rpIdHash[32] | flags[1] | signCount[4 BE] | aaguid[16] | credIdLen[2 BE] | credId[credIdLen] | COSE key
const (
	rpIDHashSize  = 32
	flagsSize     = 1
	signCountSize = 4
	aaguidSize    = 16
	credLenSize   = 2

	// minAuthDataLen is the fixed prefix before the variable credential id.
	minAuthDataLen = rpIDHashSize + flagsSize + signCountSize + aaguidSize + credLenSize
)

const (
	FlagUserPresent               = byte(1)
	FlagUserVerified              = byte(1 << 2)
	FlagHasAttestedCredentialData = byte(1 << 6)
	FlagHasExtensionData          = byte(1 << 7)
)

// AuthData holds the parsed fields of the authenticator data.
//
// COSEKey is the raw byte region following the credential id. It is the
// CBOR-encoded credential public key, possibly followed by extension bytes;
// consumers must decode only the first CBOR value and ignore the rest.
type AuthData struct {
	RPIDHash     []byte
	Flags        byte
	SignCount    uint32
	AAGUID       []byte
	CredentialID []byte
	COSEKey      []byte
}

// ParseAuthData parses the fixed-layout authenticator data buffer. Any
// truncation is reported as ErrMalformedAuthData; no index is ever read past
// the end of the buffer.
func ParseAuthData(raw []byte) (*AuthData, error) {
	if len(raw) < minAuthDataLen {
		return nil, &ErrMalformedAuthData{
			Reason: fmt.Sprintf("authenticator data too short: %d bytes, need at least %d", len(raw), minAuthDataLen),
		}
	}

	cursor := raw

	ad := AuthData{}
	ad.RPIDHash = cursor[:rpIDHashSize]
	cursor = cursor[rpIDHashSize:]

	ad.Flags = cursor[0]
	cursor = cursor[flagsSize:]

	ad.SignCount = binary.BigEndian.Uint32(cursor)
	cursor = cursor[signCountSize:]

	ad.AAGUID = cursor[:aaguidSize]
	cursor = cursor[aaguidSize:]

	credLen := int(binary.BigEndian.Uint16(cursor))
	cursor = cursor[credLenSize:]

	if len(cursor) < credLen {
		return nil, &ErrMalformedAuthData{
			Reason: fmt.Sprintf("declared credential id length %d exceeds remaining %d bytes", credLen, len(cursor)),
		}
	}
	ad.CredentialID = cursor[:credLen]

	// Everything after the credential id is the COSE key region. It may carry
	// trailing extension data; that is the consumer's problem, not a parse error.
	ad.COSEKey = cursor[credLen:]
	if len(ad.COSEKey) == 0 {
		return nil, &ErrMalformedAuthData{Reason: "authenticator data has no credential public key"}
	}

	return &ad, nil
}

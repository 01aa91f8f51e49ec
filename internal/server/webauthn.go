package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/ory/go-convenience/stringslice"
)

const rpName = "passkey-wallet"

// creationOptions builds the credential creation request handed to the
// browser: ES256 preferred with RS256 fallback, a discoverable credential,
// and required user verification. Attestation stays "none"; the pipeline only
// needs authData, not an attestation statement.
func creationOptions(rpID string, user userParty, challenge protocol.URLEncodedBase64) protocol.CredentialCreation {
	return protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: challenge,
			RelyingParty: protocol.RelyingPartyEntity{
				CredentialEntity: protocol.CredentialEntity{Name: rpName},
				ID:               rpID,
			},
			User: protocol.UserEntity{
				CredentialEntity: protocol.CredentialEntity{Name: user.Name},
				DisplayName:      user.Name,
				ID:               user.ID,
			},
			Parameters: []protocol.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
			},
			AuthenticatorSelection: protocol.AuthenticatorSelection{
				RequireResidentKey: protocol.ResidentKeyRequired(),
				ResidentKey:        protocol.ResidentKeyRequirementRequired,
				UserVerification:   protocol.VerificationRequired,
			},
			Attestation: protocol.PreferNoAttestation,
		},
	}
}

type userParty struct {
	Name string
	ID   []byte
}

type collectedClientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// verifyClientData checks the ceremony binding: correct ceremony type, the
// session's challenge echoed back, and an origin from the allow-list.
func verifyClientData(clientDataJSON []byte, challenge protocol.URLEncodedBase64, origins []string) error {
	var cd collectedClientData
	if err := json.Unmarshal(clientDataJSON, &cd); err != nil {
		return fmt.Errorf("failed to parse clientDataJSON: %w", err)
	}

	if cd.Type != "webauthn.create" {
		return fmt.Errorf("unexpected client data type %q", cd.Type)
	}
	if cd.Challenge != base64.RawURLEncoding.EncodeToString(challenge) {
		return fmt.Errorf("challenge mismatch")
	}
	if !stringslice.Has(origins, cd.Origin) {
		return fmt.Errorf("origin %q is not allowed", cd.Origin)
	}
	return nil
}

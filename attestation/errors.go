package attestation

// ErrMalformedAuthData reports a truncated or undecodable attestation object
// or authenticator data buffer. It is structural: the credential is unusable
// and the caller must not retry with the same bytes.
type ErrMalformedAuthData struct {
	Reason string
}

func (e *ErrMalformedAuthData) Error() string {
	return "malformed authenticator data: " + e.Reason
}

package model

import (
	"encoding/base64"
	"errors"
	"sync"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

type Users struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewUsers() *Users {
	return &Users{
		users: make(map[string]*User),
	}
}

func (u *Users) GetUser(name string) (*User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[name]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

// EnsureUser returns the named user, creating it on first sight.
func (u *Users) EnsureUser(name string) (*User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if user, ok := u.users[name]; ok {
		return user, nil
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	user := &User{
		id:   id.String(),
		name: name,
	}
	u.users[name] = user
	return user, nil
}

type User struct {
	mu     sync.RWMutex
	id     string
	name   string
	record *CredentialRecord
}

func (u *User) ID() string   { return u.id }
func (u *User) Name() string { return u.name }

// WebAuthnID returns the stable user handle sent to the authenticator.
func (u *User) WebAuthnID() []byte { return []byte(u.id) }

// CredentialRecord is the single persisted handle correlating a user to a
// wallet: the raw credential id, its standard base64 form used as derivation
// input, and the derived contract address.
type CredentialRecord struct {
	webauthn.Credential

	CredentialID string
	ContractID   string
	Degraded     bool
}

// SetRecord installs the user's credential record, replacing any previous
// one.
func (u *User) SetRecord(rec CredentialRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.record = &rec
}

// Record returns the user's credential record. A corrupted record (one whose
// stored credential id no longer decodes) is discarded, not repaired, so the
// caller sees the same miss as a user who never registered.
func (u *User) Record() (*CredentialRecord, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.record == nil {
		return nil, false
	}
	if _, err := base64.StdEncoding.DecodeString(u.record.CredentialID); err != nil {
		u.record = nil
		return nil, false
	}
	return u.record, true
}

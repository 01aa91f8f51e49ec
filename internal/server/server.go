package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/kokukuma/passkey-wallet/attestation"
	"github.com/kokukuma/passkey-wallet/contractid"
	"github.com/kokukuma/passkey-wallet/cosekey"
	"github.com/kokukuma/passkey-wallet/internal/model"
	"github.com/kokukuma/passkey-wallet/lumens"
	"github.com/kokukuma/passkey-wallet/wallet"
)

// confirmationWait bounds how long a transfer response waits for ledger
// confirmation before reporting the transaction as still pending.
const confirmationWait = 30 * time.Second

type Config struct {
	RPID              string
	Origins           []string
	DeployerAddress   string
	NetworkPassphrase string
}

type Server struct {
	cfg      Config
	wallet   *wallet.Service
	users    *model.Users
	sessions *Sessions
}

func NewServer(cfg Config, walletSvc *wallet.Service) *Server {
	return &Server{
		cfg:      cfg,
		wallet:   walletSvc,
		users:    model.NewUsers(),
		sessions: NewSessions(),
	}
}

type BeginRequest struct {
	Username string `json:"username"`
}

type BeginResponse struct {
	SessionID string                      `json:"session_id"`
	Options   protocol.CredentialCreation `json:"options"`
}

// RegistrationBegin starts a passkey registration ceremony and returns the
// creation options for navigator.credentials.create.
func (s *Server) RegistrationBegin(w http.ResponseWriter, r *http.Request) {
	req := BeginRequest{}
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		jsonErrorResponse(w, errors.New("username is required"), http.StatusBadRequest)
		return
	}

	user, err := s.users.EnsureUser(req.Username)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to create user: %w", err), http.StatusInternalServerError)
		return
	}

	session, err := s.sessions.NewSession(req.Username)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to create session: %w", err), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, BeginResponse{
		SessionID: session.ID,
		Options:   creationOptions(s.cfg.RPID, userParty{Name: user.Name(), ID: user.WebAuthnID()}, session.Challenge),
	}, http.StatusOK)
}

type FinishRequest struct {
	SessionID         string                    `json:"session_id"`
	RawID             protocol.URLEncodedBase64 `json:"raw_id"`
	AttestationObject protocol.URLEncodedBase64 `json:"attestation_object"`
	ClientDataJSON    protocol.URLEncodedBase64 `json:"client_data_json"`
}

type FinishResponse struct {
	ContractID string `json:"contract_id"`
	TxHash     string `json:"tx_hash,omitempty"`
	Degraded   bool   `json:"degraded,omitempty"`
	Warning    string `json:"warning,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RegistrationFinish runs the whole pipeline: ceremony checks, attestation
// parse, key extraction, address derivation, then wallet deployment.
func (s *Server) RegistrationFinish(w http.ResponseWriter, r *http.Request) {
	req := FinishRequest{}
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}

	session, err := s.sessions.TakeSession(req.SessionID)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to load session: %w", err), http.StatusBadRequest)
		return
	}

	if err := verifyClientData(req.ClientDataJSON, session.Challenge, s.cfg.Origins); err != nil {
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	obj, err := attestation.Parse(req.AttestationObject)
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}
	authData, err := attestation.ParseAuthData(obj.AuthData)
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}
	spew.Dump(authData.CredentialID)

	pubKey, err := cosekey.Extract(authData.COSEKey)
	if err != nil {
		// Structural: the credential is unusable and the message says why
		// (e.g. which key type the authenticator produced).
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	credentialID := base64.StdEncoding.EncodeToString(authData.CredentialID)
	contractID, err := contractid.Derive(credentialID, s.cfg.DeployerAddress, s.cfg.NetworkPassphrase)
	if err != nil {
		jsonErrorResponse(w, err, http.StatusInternalServerError)
		return
	}

	user, err := s.users.EnsureUser(session.Username)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to load user: %w", err), http.StatusInternalServerError)
		return
	}
	user.SetRecord(model.CredentialRecord{
		Credential: webauthn.Credential{
			ID:        authData.CredentialID,
			PublicKey: pubKey.Bytes,
		},
		CredentialID: credentialID,
		ContractID:   contractID,
		Degraded:     pubKey.Degraded,
	})

	if pubKey.Degraded {
		jsonResponse(w, FinishResponse{
			ContractID: contractID,
			Degraded:   true,
			Warning:    "RS256 credential recorded for observability only; the wallet contract cannot verify its signatures and no wallet was deployed",
		}, http.StatusOK)
		return
	}

	txHash, err := s.wallet.Deploy(r.Context(), wallet.NewSigner(credentialID, pubKey))
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadGateway)
		return
	}

	jsonResponse(w, FinishResponse{
		ContractID: contractID,
		TxHash:     txHash,
	}, http.StatusOK)
}

type TransferRequest struct {
	Username string `json:"username"`
	Amount   string `json:"amount"`
}

type TransferResponse struct {
	TxHash  string `json:"tx_hash"`
	Status  string `json:"status"`
	Balance string `json:"balance,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Transfer funds the caller's wallet contract from the deployer account and
// waits (bounded) for confirmation before reading the balance back.
func (s *Server) Transfer(w http.ResponseWriter, r *http.Request) {
	req := TransferRequest{}
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to parse request: %w", err), http.StatusBadRequest)
		return
	}

	rec, status, err := s.lookupRecord(req.Username)
	if err != nil {
		jsonErrorResponse(w, err, status)
		return
	}

	presence, err := s.wallet.CheckContract(r.Context(), rec.ContractID)
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadGateway)
		return
	}
	if presence == wallet.Absent {
		jsonErrorResponse(w, &wallet.ErrContractNotFound{ContractID: rec.ContractID}, http.StatusNotFound)
		return
	}

	txHash, err := s.wallet.Transfer(r.Context(), wallet.TransferIntent{
		ContractID: rec.ContractID,
		Amount:     req.Amount,
	})
	if err != nil {
		var invalidAmount *lumens.ErrInvalidAmount
		if errors.As(err, &invalidAmount) {
			jsonErrorResponse(w, err, http.StatusBadRequest)
			return
		}
		jsonErrorResponse(w, err, http.StatusBadGateway)
		return
	}

	resp := TransferResponse{TxHash: txHash, Status: "PENDING"}

	pollCtx, cancel := context.WithTimeout(r.Context(), confirmationWait)
	defer cancel()
	if state, err := s.wallet.AwaitTransaction(pollCtx, txHash); err == nil {
		resp.Status = string(state)
	}
	if balance, err := s.wallet.Balance(r.Context(), rec.ContractID); err == nil {
		resp.Balance = balance
	}

	jsonResponse(w, resp, http.StatusOK)
}

type BalanceResponse struct {
	ContractID string `json:"contract_id"`
	Balance    string `json:"balance"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) Balance(w http.ResponseWriter, r *http.Request) {
	rec, status, err := s.lookupRecord(r.URL.Query().Get("username"))
	if err != nil {
		jsonErrorResponse(w, err, status)
		return
	}

	balance, err := s.wallet.Balance(r.Context(), rec.ContractID)
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadGateway)
		return
	}

	jsonResponse(w, BalanceResponse{
		ContractID: rec.ContractID,
		Balance:    balance,
	}, http.StatusOK)
}

func (s *Server) lookupRecord(username string) (*model.CredentialRecord, int, error) {
	if username == "" {
		return nil, http.StatusBadRequest, errors.New("username is required")
	}
	user, err := s.users.GetUser(username)
	if err != nil {
		return nil, http.StatusNotFound, fmt.Errorf("failed to load user: %w", err)
	}
	rec, ok := user.Record()
	if !ok {
		return nil, http.StatusNotFound, errors.New("no wallet registered for user")
	}
	return rec, http.StatusOK, nil
}

func parseJSON(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return errors.New("no request given")
	}

	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	return json.NewDecoder(r.Body).Decode(v)
}

func jsonResponse(w http.ResponseWriter, d interface{}, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	fmt.Fprintf(w, "%s", dj)
}

func jsonErrorResponse(w http.ResponseWriter, e error, c int) {
	dj, err := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: e.Error()})
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	spew.Dump(dj)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	fmt.Fprintf(w, "%s", dj)
}

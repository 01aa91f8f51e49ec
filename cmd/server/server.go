package main

import (
	"encoding/hex"
	"log"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/internal/server"
	"github.com/kokukuma/passkey-wallet/sorobanrpc"
	"github.com/kokukuma/passkey-wallet/wallet"
)

type config struct {
	Addr              string   `env:"ADDR" envDefault:":8080"`
	SorobanRPCURL     string   `env:"SOROBAN_RPC_URL" envDefault:"https://soroban-testnet.stellar.org"`
	NetworkPassphrase string   `env:"NETWORK_PASSPHRASE" envDefault:"Test SDF Network ; September 2015"`
	DeployerSeed      string   `env:"DEPLOYER_SEED,required"`
	WalletWasmHash    string   `env:"WALLET_WASM_HASH,required"`
	RPID              string   `env:"RP_ID" envDefault:"localhost"`
	RPOrigins         []string `env:"RP_ORIGINS" envDefault:"http://localhost:8080"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	deployer, err := keypair.ParseFull(cfg.DeployerSeed)
	if err != nil {
		log.Fatalf("failed to parse deployer seed: %v", err)
	}

	rawHash, err := hex.DecodeString(cfg.WalletWasmHash)
	if err != nil || len(rawHash) != 32 {
		log.Fatalf("WALLET_WASM_HASH must be 32 hex-encoded bytes")
	}
	var wasmHash xdr.Hash
	copy(wasmHash[:], rawHash)

	rpc := sorobanrpc.New(cfg.SorobanRPCURL, cfg.NetworkPassphrase)
	walletSvc := wallet.New(wallet.Config{
		NetworkPassphrase: cfg.NetworkPassphrase,
		Deployer:          deployer,
		WalletWasmHash:    wasmHash,
	}, rpc)

	srv := server.NewServer(server.Config{
		RPID:              cfg.RPID,
		Origins:           cfg.RPOrigins,
		DeployerAddress:   deployer.Address(),
		NetworkPassphrase: cfg.NetworkPassphrase,
	}, walletSvc)

	r := mux.NewRouter()
	r.Use(handlers.CORS(
		handlers.AllowedMethods([]string{"POST", "GET"}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedOrigins(cfg.RPOrigins),
		handlers.AllowCredentials(),
	))

	r.HandleFunc("/registration/begin", srv.RegistrationBegin).Methods("POST", "OPTIONS")
	r.HandleFunc("/registration/finish", srv.RegistrationFinish).Methods("POST", "OPTIONS")
	r.HandleFunc("/wallet/transfer", srv.Transfer).Methods("POST", "OPTIONS")
	r.HandleFunc("/wallet/balance", srv.Balance).Methods("GET", "OPTIONS")

	log.Println("starting passkey wallet server at", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

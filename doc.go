// Package citadel is the foreign-function boundary of the Citadel wallet
// and asset stack.
//
// Callers in other runtimes never see Go objects. They hold opaque 64-bit
// handles, pass primitive values, byte buffers and strings, and read back a
// numeric status plus an optional detail string.
//
// # Architecture Overview
//
//	citadel/             Root package with the guest Memory interface
//	├── abi/             Call dispatcher, per-context status channel, process boundary
//	├── resource/        Handle registry: families, leases, non-recycled handles
//	├── buffer/          Byte and secret buffers owned through handles
//	├── codec/           TLV and bech32 encoding of boundary objects
//	├── errors/          Structured errors and the closed status taxonomy
//	├── wallet/          Descriptor wallets (btcsuite)
//	├── keys/            Signing keys: secp256k1 schnorr, ed25519, dilithium3
//	├── contract/        Asset contracts with content-addressed ids
//	├── invoice/         Payment requests
//	├── inspect/         Bech32 classification
//	├── transport/       Relay sessions over gRPC with retry and deadlines
//	├── config/          TOML/YAML configuration with env overrides
//	├── logging/         zap logger construction
//	├── metrics/         Prometheus collectors for calls and live handles
//	├── wasmhost/        wazero host module "citadel" for WebAssembly guests
//	└── cmd/             libcitadel (C shared library) and the citadel CLI
//
// # Quick Start
//
//	b, err := abi.New(config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	c, _ := b.NewContext()
//	w, err := c.WalletCreate(seed, abi.NetworkDefault)
//	if err != nil {
//	    log.Printf("status %v: %s", c.Status(), c.Detail())
//	}
//	defer c.WalletDestroy(w)
//
// # Thread Safety
//
// Every handle may be used from any goroutine. Shared operations on one
// handle run concurrently; mutating operations are serialized. Status is
// recorded per context, so goroutines that want their own status create
// their own context.
package citadel

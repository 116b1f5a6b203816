// Package resource provides the handle registry of the boundary layer.
//
// A handle is an opaque uint64 naming one live object owned by the library.
// Every entry carries a Family tag, and every resolve checks it, so a wallet
// handle presented where a contract is expected fails with a type mismatch
// instead of being misinterpreted.
//
// # Handle Lifecycle
//
//	reg := resource.NewRegistry()
//
//	// Construct and register
//	h, err := reg.Create(resource.FamilyWallet, func() (any, error) {
//	    return wallet.New(seed, wallet.Testnet)
//	})
//
//	// Borrow for the duration of one call
//	err = reg.With(h, resource.FamilyWallet, resource.Shared, func(v any) error {
//	    w := v.(*wallet.Wallet)
//	    ...
//	})
//
//	// Destroy
//	err = reg.Destroy(h, resource.FamilyWallet)
//
// Handles come from a monotonic counter and are never reused, so a handle
// used after destroy always resolves to "invalid handle".
//
// # Concurrency
//
// The registry-wide lock is held only while linking or unlinking entries.
// Operations on an object take a Lease: Shared leases overlap, an Exclusive
// lease serializes against all others on the same handle, and leases on
// different handles never block each other. Destroy unlinks the entry first
// and then waits for in-flight leases before dropping the value.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	reg.Subscribe(gauge)
//
// Values implementing Dropper are dropped exactly once, on Destroy or Close.
package resource

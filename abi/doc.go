// Package abi is the call dispatcher of the citadel boundary.
//
// A Boundary owns one handle registry. Every operation runs on a Context,
// which carries the status record of the last call made through it:
//
//	b, _ := abi.New(config.Default())
//	ctx := b.NewContext()
//	w, err := ctx.WalletCreate(seed, abi.NetworkDefault)
//	if err != nil {
//	    detail := ctx.LastErrorDetail() // buffer handle, caller releases
//	}
//
// Operations never panic across the boundary. Each one records a status
// code and, on failure, a detail string that the caller may take once
// through LastErrorDetail.
//
// Operations named in the flat surfaces follow <family>_<action>; the Go
// method names are listed next to each operation.
//
// Access modes:
//   - shared: read-only lease on the handle, concurrent with other shared calls
//   - exclusive: serialized against every other call on the same handle
//   - blocking: takes timeoutMs; a value <= 0 fails with Timeout before any I/O
package abi

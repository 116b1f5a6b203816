// Command libcitadel builds the C shared library:
//
//	go build -buildmode=c-shared -o libcitadel.so ./cmd/libcitadel
//
// Every function returns an int32 status (0 is Ok). Operations take the
// caller's context handle first; results are written through out
// pointers only on success. Byte inputs are (pointer, length) pairs and
// strings are NUL-terminated; both are borrowed for the duration of the
// call. Produced buffers belong to the caller until buffer_release or
// secret_release.
package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

func main() {}

func h(v C.uint64_t) resource.Handle { return resource.Handle(v) }

func outHandle(p *C.uint64_t) *resource.Handle { return (*resource.Handle)(unsafe.Pointer(p)) }
func outU64(p *C.uint64_t) *uint64            { return (*uint64)(unsafe.Pointer(p)) }
func outU32(p *C.uint32_t) *uint32            { return (*uint32)(unsafe.Pointer(p)) }
func outBool(p *C.bool) *bool                 { return (*bool)(unsafe.Pointer(p)) }

func str(name string, p *C.char) (string, error) {
	if p == nil {
		return "", nullArg(name)
	}
	return C.GoString(p), nil
}

func bytes(name string, p *C.uint8_t, n C.size_t) ([]byte, error) {
	return bytesArg(name, unsafe.Pointer(p), uintptr(n))
}

//export citadel_init
func citadel_init(configPath *C.char) C.int32_t {
	var path string
	if configPath != nil {
		path = C.GoString(configPath)
	}
	return C.int32_t(code(initialize(path)))
}

//export citadel_teardown
func citadel_teardown() C.int32_t {
	return C.int32_t(code(abi.Teardown()))
}

//export citadel_context_new
func citadel_context_new(out *C.uint64_t) C.int32_t {
	b, err := boundary()
	if err != nil {
		return C.int32_t(code(err))
	}
	if out == nil {
		return C.int32_t(errors.CodeInvalidArgument)
	}
	ch, err := b.ContextNew()
	if err != nil {
		return C.int32_t(code(err))
	}
	*out = C.uint64_t(ch)
	return 0
}

//export citadel_context_free
func citadel_context_free(ctx C.uint64_t) C.int32_t {
	b, err := boundary()
	if err != nil {
		return C.int32_t(code(err))
	}
	return C.int32_t(code(b.ContextFree(h(ctx))))
}

//export citadel_status_last
func citadel_status_last(ctx C.uint64_t) C.int32_t {
	c, st := resolve(uint64(ctx))
	if c == nil {
		return C.int32_t(st)
	}
	return C.int32_t(c.Status())
}

//export citadel_status_detail
func citadel_status_detail(ctx C.uint64_t, out *C.uint64_t) C.int32_t {
	c, st := resolve(uint64(ctx))
	if c == nil {
		return C.int32_t(st)
	}
	if out == nil {
		return C.int32_t(errors.CodeInvalidArgument)
	}
	*out = C.uint64_t(c.LastErrorDetail())
	return 0
}

//export citadel_buffer_len
func citadel_buffer_len(ctx, buf C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "buffer_len", outU64(out), func(c *abi.Context) (uint64, error) {
		return c.BufferLen(h(buf))
	}))
}

//export citadel_buffer_read
func citadel_buffer_read(ctx, buf C.uint64_t, dst *C.uint8_t, dstLen C.size_t, out *C.size_t) C.int32_t {
	n := (*uintptr)(unsafe.Pointer(out))
	return C.int32_t(produce(uint64(ctx), "buffer_read", n, func(c *abi.Context) (uintptr, error) {
		d, err := bytes("dst", dst, dstLen)
		if err != nil {
			return 0, err
		}
		copied, err := c.BufferRead(h(buf), d)
		return uintptr(copied), err
	}))
}

//export citadel_buffer_release
func citadel_buffer_release(ctx, buf C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "buffer_release", func(c *abi.Context) error {
		return c.BufferRelease(h(buf))
	}))
}

//export citadel_secret_release
func citadel_secret_release(ctx, buf C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "secret_release", func(c *abi.Context) error {
		return c.SecretRelease(h(buf))
	}))
}

//export citadel_handle_family
func citadel_handle_family(ctx, handle C.uint64_t, out *C.uint32_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "handle_family", outU32(out), func(c *abi.Context) (uint32, error) {
		fam, err := c.HandleFamily(h(handle))
		return uint32(fam), err
	}))
}

//export citadel_bech32_info
func citadel_bech32_info(ctx C.uint64_t, s *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "bech32_info", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		v, err := str("string", s)
		if err != nil {
			return 0, err
		}
		return c.Bech32Info(v)
	}))
}

//export citadel_wallet_create
func citadel_wallet_create(ctx C.uint64_t, seed *C.uint8_t, seedLen C.size_t, network C.uint32_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_create", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		s, err := bytes("seed", seed, seedLen)
		if err != nil {
			return 0, err
		}
		return c.WalletCreate(s, uint32(network))
	}))
}

//export citadel_wallet_import
func citadel_wallet_import(ctx C.uint64_t, data *C.uint8_t, dataLen C.size_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_import", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		d, err := bytes("data", data, dataLen)
		if err != nil {
			return 0, err
		}
		return c.WalletImport(d)
	}))
}

//export citadel_wallet_export
func citadel_wallet_export(ctx, w C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_export", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.WalletExport(h(w))
	}))
}

//export citadel_wallet_export_public
func citadel_wallet_export_public(ctx, w C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_export_public", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.WalletExportPublic(h(w))
	}))
}

//export citadel_wallet_descriptor
func citadel_wallet_descriptor(ctx, w C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_descriptor", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.WalletDescriptor(h(w))
	}))
}

//export citadel_wallet_address
func citadel_wallet_address(ctx, w C.uint64_t, index C.uint32_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_address", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.WalletAddress(h(w), uint32(index))
	}))
}

//export citadel_wallet_derive_key
func citadel_wallet_derive_key(ctx, w C.uint64_t, index C.uint32_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_derive_key", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.WalletDeriveKey(h(w), uint32(index))
	}))
}

//export citadel_wallet_add_utxo
func citadel_wallet_add_utxo(ctx, w C.uint64_t, txid *C.uint8_t, txidLen C.size_t, vout C.uint32_t, value C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "wallet_add_utxo", func(c *abi.Context) error {
		t, err := bytes("txid", txid, txidLen)
		if err != nil {
			return err
		}
		return c.WalletAddUTXO(h(w), t, uint32(vout), uint64(value))
	}))
}

//export citadel_wallet_spend_utxo
func citadel_wallet_spend_utxo(ctx, w C.uint64_t, txid *C.uint8_t, txidLen C.size_t, vout C.uint32_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_spend_utxo", outU64(out), func(c *abi.Context) (uint64, error) {
		t, err := bytes("txid", txid, txidLen)
		if err != nil {
			return 0, err
		}
		return c.WalletSpendUTXO(h(w), t, uint32(vout))
	}))
}

//export citadel_wallet_balance
func citadel_wallet_balance(ctx, w C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "wallet_balance", outU64(out), func(c *abi.Context) (uint64, error) {
		return c.WalletBalance(h(w))
	}))
}

//export citadel_wallet_destroy
func citadel_wallet_destroy(ctx, w C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "wallet_destroy", func(c *abi.Context) error {
		return c.WalletDestroy(h(w))
	}))
}

//export citadel_key_generate
func citadel_key_generate(ctx C.uint64_t, scheme C.uint32_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_generate", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.KeyGenerate(uint32(scheme))
	}))
}

//export citadel_key_import
func citadel_key_import(ctx C.uint64_t, scheme C.uint32_t, secret *C.uint8_t, secretLen C.size_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_import", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		s, err := bytes("secret", secret, secretLen)
		if err != nil {
			return 0, err
		}
		return c.KeyImport(uint32(scheme), s)
	}))
}

//export citadel_key_public
func citadel_key_public(ctx, k C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_public", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.KeyPublic(h(k))
	}))
}

//export citadel_key_scheme
func citadel_key_scheme(ctx, k C.uint64_t, out *C.uint32_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_scheme", outU32(out), func(c *abi.Context) (uint32, error) {
		return c.KeyScheme(h(k))
	}))
}

//export citadel_key_sign
func citadel_key_sign(ctx, k C.uint64_t, msg *C.uint8_t, msgLen C.size_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_sign", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		m, err := bytes("msg", msg, msgLen)
		if err != nil {
			return 0, err
		}
		return c.KeySign(h(k), m)
	}))
}

//export citadel_key_verify
func citadel_key_verify(ctx C.uint64_t, scheme C.uint32_t, pub *C.uint8_t, pubLen C.size_t, msg *C.uint8_t, msgLen C.size_t, sig *C.uint8_t, sigLen C.size_t, out *C.bool) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_verify", outBool(out), func(c *abi.Context) (bool, error) {
		p, err := bytes("pub", pub, pubLen)
		if err != nil {
			return false, err
		}
		m, err := bytes("msg", msg, msgLen)
		if err != nil {
			return false, err
		}
		s, err := bytes("sig", sig, sigLen)
		if err != nil {
			return false, err
		}
		return c.KeyVerify(uint32(scheme), p, m, s)
	}))
}

//export citadel_key_export_secret
func citadel_key_export_secret(ctx, k C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "key_export_secret", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.KeyExportSecret(h(k))
	}))
}

//export citadel_key_destroy
func citadel_key_destroy(ctx, k C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "key_destroy", func(c *abi.Context) error {
		return c.KeyDestroy(h(k))
	}))
}

//export citadel_contract_issue
func citadel_contract_issue(ctx C.uint64_t, ticker, name *C.char, precision C.uint32_t, supply C.uint64_t, owner *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_issue", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		t, err := str("ticker", ticker)
		if err != nil {
			return 0, err
		}
		n, err := str("name", name)
		if err != nil {
			return 0, err
		}
		o, err := str("owner", owner)
		if err != nil {
			return 0, err
		}
		return c.ContractIssue(t, n, uint32(precision), uint64(supply), o)
	}))
}

//export citadel_contract_decode
func citadel_contract_decode(ctx C.uint64_t, data *C.uint8_t, dataLen C.size_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_decode", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		d, err := bytes("data", data, dataLen)
		if err != nil {
			return 0, err
		}
		return c.ContractDecode(d)
	}))
}

//export citadel_contract_parse
func citadel_contract_parse(ctx C.uint64_t, s *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_parse", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		v, err := str("string", s)
		if err != nil {
			return 0, err
		}
		return c.ContractParse(v)
	}))
}

//export citadel_contract_encode
func citadel_contract_encode(ctx, ct C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_encode", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.ContractEncode(h(ct))
	}))
}

//export citadel_contract_id
func citadel_contract_id(ctx, ct C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_id", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.ContractID(h(ct))
	}))
}

//export citadel_contract_balance
func citadel_contract_balance(ctx, ct C.uint64_t, owner *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_balance", outU64(out), func(c *abi.Context) (uint64, error) {
		o, err := str("owner", owner)
		if err != nil {
			return 0, err
		}
		return c.ContractBalance(h(ct), o)
	}))
}

//export citadel_contract_transfer
func citadel_contract_transfer(ctx, ct C.uint64_t, from, to *C.char, amount C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "contract_transfer", func(c *abi.Context) error {
		f, err := str("from", from)
		if err != nil {
			return err
		}
		t, err := str("to", to)
		if err != nil {
			return err
		}
		return c.ContractTransfer(h(ct), f, t, uint64(amount))
	}))
}

//export citadel_contract_sign
func citadel_contract_sign(ctx, ct, k C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "contract_sign", func(c *abi.Context) error {
		return c.ContractSign(h(ct), h(k))
	}))
}

//export citadel_contract_verify
func citadel_contract_verify(ctx, ct C.uint64_t, out *C.bool) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "contract_verify", outBool(out), func(c *abi.Context) (bool, error) {
		return c.ContractVerify(h(ct))
	}))
}

//export citadel_contract_destroy
func citadel_contract_destroy(ctx, ct C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "contract_destroy", func(c *abi.Context) error {
		return c.ContractDestroy(h(ct))
	}))
}

//export citadel_invoice_create
func citadel_invoice_create(ctx C.uint64_t, contractID *C.char, amount C.uint64_t, beneficiary *C.char, expiry C.int64_t, memo *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_create", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		var id, m string
		if contractID != nil {
			id = C.GoString(contractID)
		}
		if memo != nil {
			m = C.GoString(memo)
		}
		b, err := str("beneficiary", beneficiary)
		if err != nil {
			return 0, err
		}
		return c.InvoiceCreate(id, uint64(amount), b, int64(expiry), m)
	}))
}

//export citadel_invoice_parse
func citadel_invoice_parse(ctx C.uint64_t, s *C.char, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_parse", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		v, err := str("string", s)
		if err != nil {
			return 0, err
		}
		return c.InvoiceParse(v)
	}))
}

//export citadel_invoice_to_string
func citadel_invoice_to_string(ctx, inv C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_to_string", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.InvoiceString(h(inv))
	}))
}

//export citadel_invoice_amount
func citadel_invoice_amount(ctx, inv C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_amount", outU64(out), func(c *abi.Context) (uint64, error) {
		return c.InvoiceAmount(h(inv))
	}))
}

//export citadel_invoice_expired
func citadel_invoice_expired(ctx, inv C.uint64_t, out *C.bool) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_expired", outBool(out), func(c *abi.Context) (bool, error) {
		return c.InvoiceExpired(h(inv))
	}))
}

//export citadel_invoice_info
func citadel_invoice_info(ctx, inv C.uint64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "invoice_info", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.InvoiceInfo(h(inv))
	}))
}

//export citadel_invoice_destroy
func citadel_invoice_destroy(ctx, inv C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "invoice_destroy", func(c *abi.Context) error {
		return c.InvoiceDestroy(h(inv))
	}))
}

//export citadel_transport_connect
func citadel_transport_connect(ctx C.uint64_t, target *C.char, timeoutMs C.int64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "transport_connect", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		t, err := str("target", target)
		if err != nil {
			return 0, err
		}
		return c.TransportConnect(t, int64(timeoutMs))
	}))
}

//export citadel_transport_publish
func citadel_transport_publish(ctx, session, ct C.uint64_t, timeoutMs C.int64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "transport_publish", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		return c.TransportPublish(h(session), h(ct), int64(timeoutMs))
	}))
}

//export citadel_transport_fetch
func citadel_transport_fetch(ctx, session C.uint64_t, id *C.char, timeoutMs C.int64_t, out *C.uint64_t) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "transport_fetch", outHandle(out), func(c *abi.Context) (resource.Handle, error) {
		v, err := str("id", id)
		if err != nil {
			return 0, err
		}
		return c.TransportFetch(h(session), v, int64(timeoutMs))
	}))
}

//export citadel_transport_has
func citadel_transport_has(ctx, session C.uint64_t, id *C.char, timeoutMs C.int64_t, out *C.bool) C.int32_t {
	return C.int32_t(produce(uint64(ctx), "transport_has", outBool(out), func(c *abi.Context) (bool, error) {
		v, err := str("id", id)
		if err != nil {
			return false, err
		}
		return c.TransportHas(h(session), v, int64(timeoutMs))
	}))
}

//export citadel_transport_close
func citadel_transport_close(ctx, session C.uint64_t) C.int32_t {
	return C.int32_t(exec(uint64(ctx), "transport_close", func(c *abi.Context) error {
		return c.TransportClose(h(session))
	}))
}

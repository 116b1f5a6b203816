package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

func (h *Host) define() {
	h.defineContext()
	h.defineBuffers()
	h.defineWallet()
	h.defineKeys()
	h.defineContract()
	h.defineInvoice()
	h.defineTransport()
}

func (h *Host) defineContext() {
	// context_new(out_ctx) -> status
	h.register("context_new", []api.ValueType{i32}, func(_ context.Context, mod api.Module, stack []uint64) {
		mem := WrapMemory(mod.Memory())
		out := api.DecodeU32(stack[0])
		if err := mem.Check(out, 8); err != nil {
			stack[0] = status(errors.CodeOf(err))
			return
		}
		ch, err := h.b.ContextNew()
		if err != nil {
			stack[0] = status(errors.CodeOf(err))
			return
		}
		if err := mem.WriteU64(out, uint64(ch)); err != nil {
			_ = h.b.ContextFree(ch)
			stack[0] = status(errors.CodeOf(err))
			return
		}
		stack[0] = status(errors.CodeOK)
	})

	// context_free(ctx) -> status
	h.register("context_free", []api.ValueType{i64}, func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = status(errors.CodeOf(h.b.ContextFree(resource.Handle(stack[0]))))
	})

	// status_last(ctx) -> the last recorded status
	h.register("status_last", []api.ValueType{i64}, func(_ context.Context, _ api.Module, stack []uint64) {
		c, err := h.b.Context(resource.Handle(stack[0]))
		if err != nil {
			stack[0] = status(errors.CodeOf(err))
			return
		}
		stack[0] = status(c.Status())
	})

	// status_detail(ctx, out_buffer) -> status; writes 0 when there is no detail
	h.register("status_detail", []api.ValueType{i64, i32}, func(_ context.Context, mod api.Module, stack []uint64) {
		c, err := h.b.Context(resource.Handle(stack[0]))
		if err != nil {
			stack[0] = status(errors.CodeOf(err))
			return
		}
		mem := WrapMemory(mod.Memory())
		out := api.DecodeU32(stack[1])
		if err := mem.Check(out, 8); err != nil {
			stack[0] = status(errors.CodeOf(err))
			return
		}
		_ = mem.WriteU64(out, uint64(c.LastErrorDetail()))
		stack[0] = status(errors.CodeOK)
	})
}

func (h *Host) defineBuffers() {
	handleToU64(h, "buffer_len", (*abi.Context).BufferLen)

	// buffer_read(ctx, buf, dst_ptr, dst_len, out_n)
	h.op("buffer_read", []api.ValueType{i64, i32, i32, i32}, func(c *abi.Context, a *args) error {
		buf, ptr, n, out := a.handle(), a.u32(), a.u32(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		if err := a.mem.Check(ptr, n); err != nil {
			a.err = err
			return err
		}
		dst := make([]byte, n)
		copied, err := c.BufferRead(buf, dst)
		if err != nil {
			return err
		}
		if err := a.mem.Write(ptr, dst[:copied]); err != nil {
			a.err = err
			return err
		}
		return a.putU64(out, uint64(copied))
	})

	destroy(h, "buffer_release", (*abi.Context).BufferRelease)
	destroy(h, "secret_release", (*abi.Context).SecretRelease)

	// handle_family(ctx, handle, out_family u32)
	h.op("handle_family", []api.ValueType{i64, i32}, func(c *abi.Context, a *args) error {
		in, out := a.handle(), a.out(4)
		if err := a.Err(); err != nil {
			return err
		}
		fam, err := c.HandleFamily(in)
		if err != nil {
			return err
		}
		return a.putU32(out, uint32(fam))
	})

	stringToHandle(h, "bech32_info", (*abi.Context).Bech32Info)
}

func (h *Host) defineWallet() {
	// wallet_create(ctx, seed_ptr, seed_len, network, out_wallet)
	h.op("wallet_create", []api.ValueType{i32, i32, i32, i32}, func(c *abi.Context, a *args) error {
		seed, network, out := a.bytes(), a.u32(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		w, err := c.WalletCreate(seed, network)
		if err != nil {
			return err
		}
		return a.putHandle(out, w)
	})

	bytesToHandle(h, "wallet_import", (*abi.Context).WalletImport)
	handleToHandle(h, "wallet_export", (*abi.Context).WalletExport)
	handleToHandle(h, "wallet_export_public", (*abi.Context).WalletExportPublic)
	handleToHandle(h, "wallet_descriptor", (*abi.Context).WalletDescriptor)

	indexed := func(name string, fn func(*abi.Context, resource.Handle, uint32) (resource.Handle, error)) {
		h.op(name, []api.ValueType{i64, i32, i32}, func(c *abi.Context, a *args) error {
			w, index, out := a.handle(), a.u32(), a.out(8)
			if err := a.Err(); err != nil {
				return err
			}
			v, err := fn(c, w, index)
			if err != nil {
				return err
			}
			return a.putHandle(out, v)
		})
	}
	indexed("wallet_address", (*abi.Context).WalletAddress)
	indexed("wallet_derive_key", (*abi.Context).WalletDeriveKey)

	// wallet_add_utxo(ctx, wallet, txid_ptr, txid_len, vout, value)
	h.op("wallet_add_utxo", []api.ValueType{i64, i32, i32, i32, i64}, func(c *abi.Context, a *args) error {
		w, txid, vout, value := a.handle(), a.bytes(), a.u32(), a.u64()
		if err := a.Err(); err != nil {
			return err
		}
		return c.WalletAddUTXO(w, txid, vout, value)
	})

	// wallet_spend_utxo(ctx, wallet, txid_ptr, txid_len, vout, out_value)
	h.op("wallet_spend_utxo", []api.ValueType{i64, i32, i32, i32, i32}, func(c *abi.Context, a *args) error {
		w, txid, vout, out := a.handle(), a.bytes(), a.u32(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := c.WalletSpendUTXO(w, txid, vout)
		if err != nil {
			return err
		}
		return a.putU64(out, v)
	})

	handleToU64(h, "wallet_balance", (*abi.Context).WalletBalance)
	destroy(h, "wallet_destroy", (*abi.Context).WalletDestroy)
}

func (h *Host) defineKeys() {
	// key_generate(ctx, scheme, out_key)
	h.op("key_generate", []api.ValueType{i32, i32}, func(c *abi.Context, a *args) error {
		scheme, out := a.u32(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		k, err := c.KeyGenerate(scheme)
		if err != nil {
			return err
		}
		return a.putHandle(out, k)
	})

	// key_import(ctx, scheme, secret_ptr, secret_len, out_key)
	h.op("key_import", []api.ValueType{i32, i32, i32, i32}, func(c *abi.Context, a *args) error {
		scheme, secret, out := a.u32(), a.bytes(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		defer clear(secret)
		k, err := c.KeyImport(scheme, secret)
		if err != nil {
			return err
		}
		return a.putHandle(out, k)
	})

	handleToHandle(h, "key_public", (*abi.Context).KeyPublic)

	// key_scheme(ctx, key, out_scheme u32)
	h.op("key_scheme", []api.ValueType{i64, i32}, func(c *abi.Context, a *args) error {
		k, out := a.handle(), a.out(4)
		if err := a.Err(); err != nil {
			return err
		}
		s, err := c.KeyScheme(k)
		if err != nil {
			return err
		}
		return a.putU32(out, s)
	})

	// key_sign(ctx, key, msg_ptr, msg_len, out_sig)
	h.op("key_sign", []api.ValueType{i64, i32, i32, i32}, func(c *abi.Context, a *args) error {
		k, msg, out := a.handle(), a.bytes(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		sig, err := c.KeySign(k, msg)
		if err != nil {
			return err
		}
		return a.putHandle(out, sig)
	})

	// key_verify(ctx, scheme, pub_ptr, pub_len, msg_ptr, msg_len, sig_ptr, sig_len, out_ok)
	h.op("key_verify", []api.ValueType{i32, i32, i32, i32, i32, i32, i32, i32}, func(c *abi.Context, a *args) error {
		scheme, pub, msg, sig, out := a.u32(), a.bytes(), a.bytes(), a.bytes(), a.out(4)
		if err := a.Err(); err != nil {
			return err
		}
		ok, err := c.KeyVerify(scheme, pub, msg, sig)
		if err != nil {
			return err
		}
		return a.putBool(out, ok)
	})

	handleToHandle(h, "key_export_secret", (*abi.Context).KeyExportSecret)
	destroy(h, "key_destroy", (*abi.Context).KeyDestroy)
}

func (h *Host) defineContract() {
	// contract_issue(ctx, ticker, name, precision, supply, owner, out_contract)
	h.op("contract_issue", []api.ValueType{i32, i32, i32, i32, i32, i64, i32, i32, i32}, func(c *abi.Context, a *args) error {
		ticker, name, precision, supply, owner, out := a.str(), a.str(), a.u32(), a.u64(), a.str(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		ct, err := c.ContractIssue(ticker, name, precision, supply, owner)
		if err != nil {
			return err
		}
		return a.putHandle(out, ct)
	})

	bytesToHandle(h, "contract_decode", (*abi.Context).ContractDecode)
	stringToHandle(h, "contract_parse", (*abi.Context).ContractParse)
	handleToHandle(h, "contract_encode", (*abi.Context).ContractEncode)
	handleToHandle(h, "contract_id", (*abi.Context).ContractID)

	// contract_balance(ctx, contract, owner_ptr, owner_len, out_amount)
	h.op("contract_balance", []api.ValueType{i64, i32, i32, i32}, func(c *abi.Context, a *args) error {
		ct, owner, out := a.handle(), a.str(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := c.ContractBalance(ct, owner)
		if err != nil {
			return err
		}
		return a.putU64(out, v)
	})

	// contract_transfer(ctx, contract, from, to, amount)
	h.op("contract_transfer", []api.ValueType{i64, i32, i32, i32, i32, i64}, func(c *abi.Context, a *args) error {
		ct, from, to, amount := a.handle(), a.str(), a.str(), a.u64()
		if err := a.Err(); err != nil {
			return err
		}
		return c.ContractTransfer(ct, from, to, amount)
	})

	// contract_sign(ctx, contract, key)
	h.op("contract_sign", []api.ValueType{i64, i64}, func(c *abi.Context, a *args) error {
		return c.ContractSign(a.handle(), a.handle())
	})

	handleToBool(h, "contract_verify", (*abi.Context).ContractVerify)
	destroy(h, "contract_destroy", (*abi.Context).ContractDestroy)
}

func (h *Host) defineInvoice() {
	// invoice_create(ctx, contract_id, amount, beneficiary, expiry, memo, out_invoice)
	h.op("invoice_create", []api.ValueType{i32, i32, i64, i32, i32, i64, i32, i32, i32}, func(c *abi.Context, a *args) error {
		id, amount, beneficiary, expiry, memo, out := a.str(), a.u64(), a.str(), a.i64(), a.str(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		inv, err := c.InvoiceCreate(id, amount, beneficiary, expiry, memo)
		if err != nil {
			return err
		}
		return a.putHandle(out, inv)
	})

	stringToHandle(h, "invoice_parse", (*abi.Context).InvoiceParse)
	handleToHandle(h, "invoice_to_string", (*abi.Context).InvoiceString)
	handleToU64(h, "invoice_amount", (*abi.Context).InvoiceAmount)
	handleToBool(h, "invoice_expired", (*abi.Context).InvoiceExpired)
	handleToHandle(h, "invoice_info", (*abi.Context).InvoiceInfo)
	destroy(h, "invoice_destroy", (*abi.Context).InvoiceDestroy)
}

func (h *Host) defineTransport() {
	// transport_connect(ctx, target_ptr, target_len, timeout_ms, out_session)
	h.op("transport_connect", []api.ValueType{i32, i32, i64, i32}, func(c *abi.Context, a *args) error {
		target, timeout, out := a.str(), a.i64(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		s, err := c.TransportConnect(target, timeout)
		if err != nil {
			return err
		}
		return a.putHandle(out, s)
	})

	// transport_publish(ctx, session, contract, timeout_ms, out_id)
	h.op("transport_publish", []api.ValueType{i64, i64, i64, i32}, func(c *abi.Context, a *args) error {
		s, ct, timeout, out := a.handle(), a.handle(), a.i64(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		id, err := c.TransportPublish(s, ct, timeout)
		if err != nil {
			return err
		}
		return a.putHandle(out, id)
	})

	// transport_fetch(ctx, session, id_ptr, id_len, timeout_ms, out_contract)
	h.op("transport_fetch", []api.ValueType{i64, i32, i32, i64, i32}, func(c *abi.Context, a *args) error {
		s, id, timeout, out := a.handle(), a.str(), a.i64(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		ct, err := c.TransportFetch(s, id, timeout)
		if err != nil {
			return err
		}
		return a.putHandle(out, ct)
	})

	// transport_has(ctx, session, id_ptr, id_len, timeout_ms, out_ok)
	h.op("transport_has", []api.ValueType{i64, i32, i32, i64, i32}, func(c *abi.Context, a *args) error {
		s, id, timeout, out := a.handle(), a.str(), a.i64(), a.out(4)
		if err := a.Err(); err != nil {
			return err
		}
		ok, err := c.TransportHas(s, id, timeout)
		if err != nil {
			return err
		}
		return a.putBool(out, ok)
	})

	destroy(h, "transport_close", (*abi.Context).TransportClose)
}

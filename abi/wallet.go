package abi

import (
	"github.com/wippyai/citadel-abi/keys"
	"github.com/wippyai/citadel-abi/resource"
	"github.com/wippyai/citadel-abi/wallet"
)

// NetworkDefault selects the configured network in wallet_create.
const NetworkDefault uint32 = 0xff

func (b *Boundary) network(v uint32) (wallet.Network, error) {
	if v == NetworkDefault {
		return b.cfg.NetworkValue(), nil
	}
	return wallet.ParseNetwork(v)
}

// WalletCreate is wallet_create. The seed is borrowed for the call.
func (c *Context) WalletCreate(seed []byte, network uint32) (resource.Handle, error) {
	return run(c, "wallet_create", func() (resource.Handle, error) {
		net, err := c.b.network(network)
		if err != nil {
			return 0, err
		}
		w, err := wallet.New(seed, net)
		if err != nil {
			return 0, err
		}
		return c.b.wallets.Insert(w)
	})
}

// WalletImport is wallet_import. It accepts the output of wallet_export or
// wallet_export_public.
func (c *Context) WalletImport(data []byte) (resource.Handle, error) {
	return run(c, "wallet_import", func() (resource.Handle, error) {
		w, err := wallet.Import(data)
		if err != nil {
			return 0, err
		}
		return c.b.wallets.Insert(w)
	})
}

// WalletExport is wallet_export. The result is a secret buffer.
func (c *Context) WalletExport(h resource.Handle) (resource.Handle, error) {
	return run(c, "wallet_export", func() (resource.Handle, error) {
		var out []byte
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			var err error
			out, err = w.Export()
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Adopt(out)
	})
}

// WalletExportPublic is wallet_export_public: the watch-only encoding.
func (c *Context) WalletExportPublic(h resource.Handle) (resource.Handle, error) {
	return run(c, "wallet_export_public", func() (resource.Handle, error) {
		var out []byte
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			var err error
			out, err = w.ExportPublic()
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Put(out)
	})
}

// WalletDescriptor is wallet_descriptor.
func (c *Context) WalletDescriptor(h resource.Handle) (resource.Handle, error) {
	return run(c, "wallet_descriptor", func() (resource.Handle, error) {
		var s string
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			var err error
			s, err = w.Descriptor()
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.PutString(s)
	})
}

// WalletAddress is wallet_address.
func (c *Context) WalletAddress(h resource.Handle, index uint32) (resource.Handle, error) {
	return run(c, "wallet_address", func() (resource.Handle, error) {
		var s string
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			var err error
			s, err = w.Address(index)
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.PutString(s)
	})
}

// WalletDeriveKey is wallet_derive_key. The key is a new, independent handle.
func (c *Context) WalletDeriveKey(h resource.Handle, index uint32) (resource.Handle, error) {
	return run(c, "wallet_derive_key", func() (resource.Handle, error) {
		var k *keys.Key
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			var err error
			k, err = w.DeriveKey(index)
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.keys.Insert(k)
	})
}

// WalletAddUTXO is wallet_add_utxo.
func (c *Context) WalletAddUTXO(h resource.Handle, txid []byte, vout uint32, value uint64) error {
	return c.call("wallet_add_utxo", func() error {
		return c.b.wallets.With(h, resource.Exclusive, func(w *wallet.Wallet) error {
			return w.AddUTXO(txid, vout, value)
		})
	})
}

// WalletSpendUTXO is wallet_spend_utxo. It returns the value of the spent output.
func (c *Context) WalletSpendUTXO(h resource.Handle, txid []byte, vout uint32) (uint64, error) {
	return run(c, "wallet_spend_utxo", func() (uint64, error) {
		var v uint64
		err := c.b.wallets.With(h, resource.Exclusive, func(w *wallet.Wallet) error {
			var err error
			v, err = w.SpendUTXO(txid, vout)
			return err
		})
		return v, err
	})
}

// WalletBalance is wallet_balance.
func (c *Context) WalletBalance(h resource.Handle) (uint64, error) {
	return run(c, "wallet_balance", func() (uint64, error) {
		var v uint64
		err := c.b.wallets.With(h, resource.Shared, func(w *wallet.Wallet) error {
			v = w.Balance()
			return nil
		})
		return v, err
	})
}

// WalletDestroy is wallet_destroy. The account key is wiped.
func (c *Context) WalletDestroy(h resource.Handle) error {
	return c.call("wallet_destroy", func() error {
		return c.b.wallets.Destroy(h)
	})
}

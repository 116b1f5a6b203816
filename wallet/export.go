package wallet

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/wire"

	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/errors"
)

// TLV field ids of the wallet export.
const (
	fieldNetwork     = 1
	fieldWatchOnly   = 2
	fieldFingerprint = 3
	fieldAccount     = 4
	fieldUTXOs       = 5

	fieldTxid  = 1
	fieldVout  = 2
	fieldValue = 3
)

type exportView struct {
	w      *Wallet
	public bool
}

func (v exportView) MarshalTLV(tw *codec.Writer) error {
	key := v.w.account
	if v.public && key.IsPrivate() {
		pub, err := key.Neuter()
		if err != nil {
			return err
		}
		key = pub
	}
	utxos := v.w.UTXOs()

	tw.U8(fieldNetwork, uint8(v.w.net))
	tw.Bool(fieldWatchOnly, !key.IsPrivate())
	tw.U32(fieldFingerprint, v.w.fingerprint)
	tw.String(fieldAccount, key.String())
	tw.List(fieldUTXOs, len(utxos), func(i int, ew *codec.Writer) error {
		ew.Bytes(fieldTxid, utxos[i].OutPoint.Hash[:])
		ew.U32(fieldVout, utxos[i].OutPoint.Index)
		ew.U64(fieldValue, utxos[i].Value)
		return nil
	})
	return nil
}

// Export encodes the wallet including its account private key.
// The result is secret material.
func (w *Wallet) Export() ([]byte, error) {
	return codec.Encode(codec.KindWallet, exportView{w: w})
}

// ExportPublic encodes a watch-only form of the wallet.
func (w *Wallet) ExportPublic() ([]byte, error) {
	return codec.Encode(codec.KindWallet, exportView{w: w, public: true})
}

// Import rebuilds a wallet from Export or ExportPublic output.
func Import(buf []byte) (*Wallet, error) {
	w := &Wallet{utxos: make(map[wire.OutPoint]uint64)}
	if err := codec.Decode(buf, codec.KindWallet, w); err != nil {
		if w.account != nil {
			w.account.Zero()
		}
		return nil, err
	}
	return w, nil
}

// UnmarshalTLV implements codec.Unmarshaler.
func (w *Wallet) UnmarshalTLV(r *codec.Reader) error {
	n, err := r.U8(fieldNetwork)
	if err != nil {
		return err
	}
	if Network(n) > Signet {
		return errors.Malformed(errors.PhaseDecode, nil, "unknown network %d", n)
	}
	w.net = Network(n)

	watchOnly, err := r.Bool(fieldWatchOnly)
	if err != nil {
		return err
	}
	if w.fingerprint, err = r.U32(fieldFingerprint); err != nil {
		return err
	}

	s, err := r.String(fieldAccount)
	if err != nil {
		return err
	}
	key, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return errors.Malformed(errors.PhaseDecode, []string{"account"}, "invalid extended key: %v", err)
	}
	w.account = key
	if !key.IsForNet(w.net.Params()) {
		return errors.Malformed(errors.PhaseDecode, []string{"account"}, "extended key is not for %s", w.net)
	}
	if key.IsPrivate() == watchOnly {
		return errors.Malformed(errors.PhaseDecode, []string{"account"}, "watch-only flag disagrees with key type")
	}
	if key.Depth() != 3 {
		return errors.Malformed(errors.PhaseDecode, []string{"account"}, "account key depth %d, want 3", key.Depth())
	}

	var prev *wire.OutPoint
	return r.List(fieldUTXOs, func(i int, er *codec.Reader) error {
		txid, err := er.Bytes(fieldTxid)
		if err != nil {
			return err
		}
		vout, err := er.U32(fieldVout)
		if err != nil {
			return err
		}
		value, err := er.U64(fieldValue)
		if err != nil {
			return err
		}
		op, err := outPoint(txid, vout)
		if err != nil {
			return errors.Malformed(errors.PhaseDecode, []string{"utxos"}, "entry %d: bad txid", i)
		}
		if prev != nil && compareOutPoint(*prev, op) >= 0 {
			return errors.Malformed(errors.PhaseDecode, []string{"utxos"}, "entry %d out of order", i)
		}
		if err := w.AddUTXO(txid, vout, value); err != nil {
			return errors.Malformed(errors.PhaseDecode, []string{"utxos"}, "entry %d: %v", i, err)
		}
		prev = &op
		return nil
	})
}

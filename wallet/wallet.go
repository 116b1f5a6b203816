// Package wallet is a thin BIP84 wallet over btcsuite's hdkeychain.
//
// A Wallet holds the account-level extended key m/84'/coin'/0' and a set of
// unspent outputs. A watch-only wallet holds only the public account key.
// Wallets are not safe for concurrent mutation; the handle registry
// serializes exclusive calls.
package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/keys"
)

const purpose = 84

// UTXO is an unspent output tracked by the wallet.
type UTXO struct {
	OutPoint wire.OutPoint
	Value    uint64
}

// Wallet is a single-account BIP84 wallet.
type Wallet struct {
	account     *hdkeychain.ExtendedKey
	utxos       map[wire.OutPoint]uint64
	fingerprint uint32
	net         Network
}

// New derives a wallet from a BIP32 seed of 16 to 64 bytes.
func New(seed []byte, net Network) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, errors.InvalidArgument(errors.PhaseCreate, "seed must be %d..%d bytes, got %d",
			hdkeychain.MinSeedBytes, hdkeychain.MaxSeedBytes, len(seed))
	}
	if net > Signet {
		return nil, errors.InvalidArgument(errors.PhaseCreate, "unknown network %d", net)
	}

	master, err := hdkeychain.NewMaster(seed, net.Params())
	if err != nil {
		return nil, errors.Allocation("wallet", err)
	}
	defer master.Zero()

	fp, err := fingerprintOf(master)
	if err != nil {
		return nil, errors.Allocation("wallet", err)
	}

	account := master
	for _, idx := range []uint32{purpose, net.Params().HDCoinType, 0} {
		account, err = account.Derive(hdkeychain.HardenedKeyStart + idx)
		if err != nil {
			return nil, errors.Allocation("wallet", err)
		}
	}

	return &Wallet{
		account:     account,
		fingerprint: fp,
		net:         net,
		utxos:       make(map[wire.OutPoint]uint64),
	}, nil
}

func fingerprintOf(k *hdkeychain.ExtendedKey) (uint32, error) {
	pub, err := k.ECPubKey()
	if err != nil {
		return 0, err
	}
	h := btcutil.Hash160(pub.SerializeCompressed())
	return uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3]), nil
}

// Network returns the wallet's network.
func (w *Wallet) Network() Network {
	return w.net
}

// WatchOnly reports whether the wallet lacks private keys.
func (w *Wallet) WatchOnly() bool {
	return !w.account.IsPrivate()
}

// Fingerprint returns the master key fingerprint as 8 hex digits.
func (w *Wallet) Fingerprint() string {
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(w.fingerprint>>24), byte(w.fingerprint>>16), byte(w.fingerprint>>8), byte(w.fingerprint)
	return hex.EncodeToString(b[:])
}

func (w *Wallet) xpub() (*hdkeychain.ExtendedKey, error) {
	if w.WatchOnly() {
		return w.account, nil
	}
	return w.account.Neuter()
}

// Descriptor returns the output descriptor of the receive chain.
func (w *Wallet) Descriptor() (string, error) {
	pub, err := w.xpub()
	if err != nil {
		return "", errors.Internal(errors.PhaseEncode, "neuter account key", err)
	}
	return fmt.Sprintf("wpkh([%s/%dh/%dh/0h]%s/0/*)", w.Fingerprint(), purpose, w.net.Params().HDCoinType, pub.String()), nil
}

func (w *Wallet) child(index uint32) (*hdkeychain.ExtendedKey, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return nil, errors.InvalidArgument(errors.PhaseDispatch, "address index %d out of range", index)
	}
	ext, err := w.account.Derive(0)
	if err != nil {
		return nil, errors.Internal(errors.PhaseDispatch, "derive receive chain", err)
	}
	k, err := ext.Derive(index)
	if err != nil {
		return nil, errors.Internal(errors.PhaseDispatch, "derive address key", err)
	}
	return k, nil
}

// Address returns the P2WPKH receive address at index.
func (w *Wallet) Address(index uint32) (string, error) {
	k, err := w.child(index)
	if err != nil {
		return "", err
	}
	pub, err := k.ECPubKey()
	if err != nil {
		return "", errors.Internal(errors.PhaseDispatch, "address public key", err)
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), w.net.Params())
	if err != nil {
		return "", errors.Internal(errors.PhaseDispatch, "address encoding", err)
	}
	return addr.EncodeAddress(), nil
}

// DeriveKey returns the private key behind the receive address at index.
func (w *Wallet) DeriveKey(index uint32) (*keys.Key, error) {
	if w.WatchOnly() {
		return nil, errors.InvalidArgument(errors.PhaseDispatch, "watch-only wallet has no private keys")
	}
	k, err := w.child(index)
	if err != nil {
		return nil, err
	}
	priv, err := k.ECPrivKey()
	if err != nil {
		return nil, errors.Internal(errors.PhaseDispatch, "derive private key", err)
	}
	return keys.FromPrivateKey(priv), nil
}

func outPoint(txid []byte, vout uint32) (wire.OutPoint, error) {
	h, err := chainhash.NewHash(txid)
	if err != nil {
		return wire.OutPoint{}, errors.InvalidArgument(errors.PhaseDispatch, "txid must be %d bytes, got %d", chainhash.HashSize, len(txid))
	}
	return wire.OutPoint{Hash: *h, Index: vout}, nil
}

// AddUTXO records an unspent output.
func (w *Wallet) AddUTXO(txid []byte, vout uint32, value uint64) error {
	op, err := outPoint(txid, vout)
	if err != nil {
		return err
	}
	if value == 0 {
		return errors.InvalidArgument(errors.PhaseDispatch, "zero-value output %s", op)
	}
	if _, ok := w.utxos[op]; ok {
		return errors.InvalidArgument(errors.PhaseDispatch, "output %s already tracked", op)
	}
	if w.Balance() > math.MaxUint64-value {
		return errors.InvalidArgument(errors.PhaseDispatch, "balance overflow")
	}
	w.utxos[op] = value
	return nil
}

// SpendUTXO removes an unspent output and returns its value.
func (w *Wallet) SpendUTXO(txid []byte, vout uint32) (uint64, error) {
	op, err := outPoint(txid, vout)
	if err != nil {
		return 0, err
	}
	v, ok := w.utxos[op]
	if !ok {
		return 0, errors.InvalidArgument(errors.PhaseDispatch, "output %s not tracked", op)
	}
	delete(w.utxos, op)
	return v, nil
}

// Balance sums tracked outputs.
func (w *Wallet) Balance() uint64 {
	var sum uint64
	for _, v := range w.utxos {
		sum += v
	}
	return sum
}

// UTXOs returns tracked outputs ordered by txid then index.
func (w *Wallet) UTXOs() []UTXO {
	out := make([]UTXO, 0, len(w.utxos))
	for op, v := range w.utxos {
		out = append(out, UTXO{OutPoint: op, Value: v})
	}
	slices.SortFunc(out, func(a, b UTXO) int {
		return compareOutPoint(a.OutPoint, b.OutPoint)
	})
	return out
}

func compareOutPoint(a, b wire.OutPoint) int {
	if c := bytes.Compare(a.Hash[:], b.Hash[:]); c != 0 {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}

// WatchOnlyCopy returns a wallet with the same outputs and no private keys.
func (w *Wallet) WatchOnlyCopy() (*Wallet, error) {
	pub, err := w.xpub()
	if err != nil {
		return nil, errors.Internal(errors.PhaseEncode, "neuter account key", err)
	}
	// fresh key object so dropping the copy leaves w intact
	own, err := hdkeychain.NewKeyFromString(pub.String())
	if err != nil {
		return nil, errors.Internal(errors.PhaseEncode, "copy account key", err)
	}
	c := &Wallet{
		account:     own,
		fingerprint: w.fingerprint,
		net:         w.net,
		utxos:       make(map[wire.OutPoint]uint64, len(w.utxos)),
	}
	for op, v := range w.utxos {
		c.utxos[op] = v
	}
	return c, nil
}

// Drop implements resource.Dropper.
func (w *Wallet) Drop() {
	w.account.Zero()
}

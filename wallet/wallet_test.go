package wallet

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/keys"
)

// BIP32 test vector 1
var testSeed, _ = hex.DecodeString("000102030405060708090a0b0c0d0e0f")

func txid(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func mustWallet(t *testing.T, net Network) *Wallet {
	t.Helper()
	w, err := New(testSeed, net)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNew_SeedBounds(t *testing.T) {
	tests := []struct {
		name string
		seed []byte
		ok   bool
	}{
		{"too short", make([]byte, 15), false},
		{"minimum", bytes.Repeat([]byte{1}, 16), true},
		{"maximum", bytes.Repeat([]byte{1}, 64), true},
		{"too long", make([]byte, 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.seed, Testnet)
			if tt.ok && err != nil {
				t.Fatalf("New: %v", err)
			}
			if !tt.ok && errors.CodeOf(err) != errors.CodeInvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}

	if _, err := New(testSeed, Network(9)); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("bad network: got %v", err)
	}
}

func TestDescriptor(t *testing.T) {
	w := mustWallet(t, Mainnet)
	if w.Fingerprint() != "3442193e" {
		t.Fatalf("fingerprint = %s", w.Fingerprint())
	}
	d, err := w.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if !strings.HasPrefix(d, "wpkh([3442193e/84h/0h/0h]xpub") || !strings.HasSuffix(d, "/0/*)") {
		t.Fatalf("descriptor = %s", d)
	}

	tw := mustWallet(t, Testnet)
	d, _ = tw.Descriptor()
	if !strings.HasPrefix(d, "wpkh([3442193e/84h/1h/0h]tpub") {
		t.Fatalf("testnet descriptor = %s", d)
	}
}

func TestAddress(t *testing.T) {
	prefixes := map[Network]string{
		Mainnet: "bc1q",
		Testnet: "tb1q",
		Regtest: "bcrt1q",
		Signet:  "tb1q",
	}
	for net, prefix := range prefixes {
		t.Run(net.String(), func(t *testing.T) {
			w := mustWallet(t, net)
			a0, err := w.Address(0)
			if err != nil {
				t.Fatalf("Address: %v", err)
			}
			if !strings.HasPrefix(a0, prefix) {
				t.Fatalf("address %s lacks prefix %s", a0, prefix)
			}
			a1, _ := w.Address(1)
			if a0 == a1 {
				t.Fatal("distinct indices gave the same address")
			}
			again, _ := w.Address(0)
			if again != a0 {
				t.Fatal("address derivation is not deterministic")
			}
		})
	}

	w := mustWallet(t, Mainnet)
	if _, err := w.Address(1 << 31); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("hardened index: got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	w := mustWallet(t, Testnet)
	k, err := w.DeriveKey(3)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if k.Scheme() != keys.SchemeSecp256k1 {
		t.Fatalf("scheme = %v", k.Scheme())
	}
	k2, _ := w.DeriveKey(3)
	if !bytes.Equal(k.Public(), k2.Public()) {
		t.Fatal("key derivation is not deterministic")
	}

	wo, err := w.WatchOnlyCopy()
	if err != nil {
		t.Fatalf("WatchOnlyCopy: %v", err)
	}
	if !wo.WatchOnly() {
		t.Fatal("copy should be watch-only")
	}
	if _, err := wo.DeriveKey(0); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("watch-only DeriveKey: got %v", err)
	}
	a, _ := w.Address(5)
	b, _ := wo.Address(5)
	if a != b {
		t.Fatal("watch-only copy derives different addresses")
	}

	wo.Drop()
	if _, err := w.DeriveKey(0); err != nil {
		t.Fatalf("dropping the copy broke the original: %v", err)
	}
}

func TestUTXOs(t *testing.T) {
	w := mustWallet(t, Regtest)

	if err := w.AddUTXO(txid(2), 0, 500); err != nil {
		t.Fatalf("AddUTXO: %v", err)
	}
	if err := w.AddUTXO(txid(1), 1, 300); err != nil {
		t.Fatalf("AddUTXO: %v", err)
	}
	if err := w.AddUTXO(txid(1), 0, 200); err != nil {
		t.Fatalf("AddUTXO: %v", err)
	}
	if w.Balance() != 1000 {
		t.Fatalf("Balance = %d", w.Balance())
	}

	us := w.UTXOs()
	if len(us) != 3 || us[0].Value != 200 || us[1].Value != 300 || us[2].Value != 500 {
		t.Fatalf("UTXOs not sorted: %+v", us)
	}

	tests := []struct {
		name  string
		txid  []byte
		vout  uint32
		value uint64
	}{
		{"duplicate", txid(1), 0, 1},
		{"zero value", txid(3), 0, 0},
		{"short txid", []byte{1, 2}, 0, 1},
		{"overflow", txid(4), 0, ^uint64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.AddUTXO(tt.txid, tt.vout, tt.value); errors.CodeOf(err) != errors.CodeInvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}

	v, err := w.SpendUTXO(txid(2), 0)
	if err != nil || v != 500 {
		t.Fatalf("SpendUTXO = %d, %v", v, err)
	}
	if _, err := w.SpendUTXO(txid(2), 0); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("double spend: got %v", err)
	}
	if w.Balance() != 500 {
		t.Fatalf("Balance = %d", w.Balance())
	}
}

func TestExportImport(t *testing.T) {
	w := mustWallet(t, Testnet)
	w.AddUTXO(txid(9), 2, 1234)
	w.AddUTXO(txid(8), 0, 66)

	full, err := w.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	w2, err := Import(full)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if w2.WatchOnly() || w2.Balance() != 1300 || w2.Network() != Testnet {
		t.Fatalf("imported wallet differs: watch=%v bal=%d", w2.WatchOnly(), w2.Balance())
	}
	d1, _ := w.Descriptor()
	d2, _ := w2.Descriptor()
	if d1 != d2 {
		t.Fatalf("descriptor mismatch:\n%s\n%s", d1, d2)
	}
	again, _ := w2.Export()
	if !bytes.Equal(full, again) {
		t.Fatal("export is not canonical")
	}

	pub, err := w.ExportPublic()
	if err != nil {
		t.Fatalf("ExportPublic: %v", err)
	}
	if bytes.Contains(pub, []byte("tprv")) {
		t.Fatal("public export leaks the private key")
	}
	wo, err := Import(pub)
	if err != nil {
		t.Fatalf("Import public: %v", err)
	}
	if !wo.WatchOnly() {
		t.Fatal("public import should be watch-only")
	}
	a, _ := w.Address(0)
	b, _ := wo.Address(0)
	if a != b {
		t.Fatal("watch-only import derives different addresses")
	}
}

func TestImport_Malformed(t *testing.T) {
	w := mustWallet(t, Mainnet)
	good, _ := w.Export()

	flipNet, _ := codec.Encode(codec.KindWallet, codec.MarshalFunc(func(tw *codec.Writer) error {
		tw.U8(fieldNetwork, uint8(Testnet))
		tw.Bool(fieldWatchOnly, false)
		tw.U32(fieldFingerprint, 0)
		tw.String(fieldAccount, w.account.String())
		tw.List(fieldUTXOs, 0, nil)
		return nil
	}))

	unsorted, _ := codec.Encode(codec.KindWallet, codec.MarshalFunc(func(tw *codec.Writer) error {
		tw.U8(fieldNetwork, uint8(Mainnet))
		tw.Bool(fieldWatchOnly, false)
		tw.U32(fieldFingerprint, 0)
		tw.String(fieldAccount, w.account.String())
		tw.List(fieldUTXOs, 2, func(i int, ew *codec.Writer) error {
			ew.Bytes(fieldTxid, txid(byte(2-i)))
			ew.U32(fieldVout, 0)
			ew.U64(fieldValue, 1)
			return nil
		})
		return nil
	}))

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"truncated", good[:len(good)/2]},
		{"garbage", []byte("definitely not a wallet")},
		{"network mismatch", flipNet},
		{"unsorted utxos", unsorted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Import(tt.buf); errors.CodeOf(err) != errors.CodeMalformedInput {
				t.Fatalf("expected MalformedInput, got %v", err)
			}
		})
	}
}

func TestParseNetwork(t *testing.T) {
	if n, err := ParseNetwork(3); err != nil || n != Signet {
		t.Fatalf("ParseNetwork(3) = %v, %v", n, err)
	}
	if _, err := ParseNetwork(4); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("ParseNetwork(4): got %v", err)
	}
	if n, err := NetworkByName("regtest"); err != nil || n != Regtest {
		t.Fatalf("NetworkByName = %v, %v", n, err)
	}
	if _, err := NetworkByName("dogecoin"); err == nil {
		t.Fatal("NetworkByName accepted an unknown name")
	}
}

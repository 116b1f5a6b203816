package invoice

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
)

func contractID(t *testing.T) cid.Cid {
	t.Helper()
	c, err := contract.Issue("USDT", "Tether", 2, 100, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := c.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	return id
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		inv  func(t *testing.T) *Invoice
	}{
		{"full", func(t *testing.T) *Invoice {
			inv, err := New(contractID(t), 42, "bob", 1_900_000_000, "coffee")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			return inv
		}},
		{"bitcoin only", func(t *testing.T) *Invoice {
			inv, err := New(cid.Undef, 1000, "tb1qexample", 0, "")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			return inv
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.inv(t)
			s := inv.String()
			if !strings.HasPrefix(s, "i1") {
				t.Fatalf("string form %q", s)
			}
			got, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got.String() != s {
				t.Fatal("parse(to_string(x)) does not round trip")
			}
			if got.Amount != inv.Amount || got.Beneficiary != inv.Beneficiary || got.Memo != inv.Memo || got.Expiry != inv.Expiry {
				t.Fatalf("fields differ: %+v vs %+v", got, inv)
			}
			if got.Contract.Defined() != inv.Contract.Defined() {
				t.Fatal("contract presence differs")
			}
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		amount      uint64
		beneficiary string
		expiry      int64
		memo        string
	}{
		{"zero amount", 0, "bob", 0, ""},
		{"no beneficiary", 1, "", 0, ""},
		{"padded beneficiary", 1, "bob ", 0, ""},
		{"negative expiry", 1, "bob", -1, ""},
		{"long memo", 1, "bob", 0, strings.Repeat("m", MaxMemoLen+1)},
		{"bad utf8", 1, "bob", 0, "\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(cid.Undef, tt.amount, tt.beneficiary, tt.expiry, tt.memo); errors.CodeOf(err) != errors.CodeInvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	inv, _ := New(cid.Undef, 5, "bob", 0, "")
	good := inv.String()

	tests := []struct {
		name string
		s    string
	}{
		{"empty", ""},
		{"not bech32", "hello world"},
		{"wrong prefix", strings.Replace(good, "i1", "x1", 1)},
		{"bad checksum", good[:len(good)-1] + flip(good[len(good)-1])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.s); errors.CodeOf(err) != errors.CodeMalformedInput {
				t.Fatalf("expected MalformedInput, got %v", err)
			}
		})
	}
}

func flip(c byte) string {
	if c == 'q' {
		return "p"
	}
	return "q"
}

func TestExpired(t *testing.T) {
	inv, _ := New(cid.Undef, 5, "bob", 1000, "")
	if inv.Expired(time.Unix(999, 0)) {
		t.Fatal("expired too early")
	}
	if !inv.Expired(time.Unix(1000, 0)) {
		t.Fatal("not expired at deadline")
	}
	never, _ := New(cid.Undef, 5, "bob", 0, "")
	if never.Expired(time.Unix(1<<40, 0)) {
		t.Fatal("invoice without expiry expired")
	}
}

func TestInfo(t *testing.T) {
	inv, _ := New(contractID(t), 7, "bob", 0, "")
	info, err := inv.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !strings.HasPrefix(info.ContractID, "rgb1") {
		t.Fatalf("contract id %q", info.ContractID)
	}

	raw, _ := json.Marshal(info)
	var m map[string]any
	json.Unmarshal(raw, &m)
	for _, k := range []string{"invoiceString", "rgbContractId", "beneficiary", "amount"} {
		if _, ok := m[k]; !ok {
			t.Errorf("JSON lacks %q: %s", k, raw)
		}
	}
	if _, ok := m["memo"]; ok {
		t.Errorf("empty memo should be omitted: %s", raw)
	}
}

// Package invoice implements payment requests for asset contracts.
//
// The string form is bech32 with the "i" prefix over the canonical TLV
// encoding, with no length limit.
package invoice

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ipfs/go-cid"

	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/internal/cidutil"
)

// Prefix is the bech32 human-readable part of invoice strings.
const Prefix = "i"

const (
	MaxBeneficiaryLen = 128
	MaxMemoLen        = 256

	maxExpiry = 1 << 62
)

const (
	fieldContract    = 1
	fieldAmount      = 2
	fieldBeneficiary = 3
	fieldExpiry      = 4
	fieldMemo        = 5
)

// Invoice requests an amount of an asset, or of bitcoin when no contract
// is named, to be paid to a beneficiary.
type Invoice struct {
	Contract    cid.Cid
	Beneficiary string
	Memo        string
	Amount      uint64
	Expiry      int64 // unix seconds, 0 means no expiry
}

// New builds and validates an invoice.
func New(contractID cid.Cid, amount uint64, beneficiary string, expiry int64, memo string) (*Invoice, error) {
	inv := &Invoice{
		Contract:    contractID,
		Amount:      amount,
		Beneficiary: beneficiary,
		Expiry:      expiry,
		Memo:        memo,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Validate checks field constraints.
func (inv *Invoice) Validate() error {
	if inv.Amount == 0 {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).Path("amount").Detail("amount must be positive").Build()
	}
	if inv.Beneficiary == "" || len(inv.Beneficiary) > MaxBeneficiaryLen || strings.TrimSpace(inv.Beneficiary) != inv.Beneficiary {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).Path("beneficiary").
			Detail("beneficiary must be 1..%d bytes without surrounding space", MaxBeneficiaryLen).Build()
	}
	if !utf8.ValidString(inv.Beneficiary) || !utf8.ValidString(inv.Memo) {
		return errors.InvalidArgument(errors.PhaseDispatch, "invoice text must be UTF-8")
	}
	if len(inv.Memo) > MaxMemoLen {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).Path("memo").Detail("memo exceeds %d bytes", MaxMemoLen).Build()
	}
	if inv.Expiry < 0 || inv.Expiry > maxExpiry {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).Path("expiry").Detail("expiry %d out of range", inv.Expiry).Build()
	}
	if inv.Contract.Defined() {
		if _, err := cidutil.Cast(inv.Contract.Bytes()); err != nil {
			return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).Path("contract").Detail("unsupported contract id").Build()
		}
	}
	return nil
}

// Expired reports whether the invoice has expired at now.
func (inv *Invoice) Expired(now time.Time) bool {
	return inv.Expiry != 0 && now.Unix() >= inv.Expiry
}

// MarshalTLV implements codec.Marshaler.
func (inv *Invoice) MarshalTLV(w *codec.Writer) error {
	if inv.Contract.Defined() {
		w.Bytes(fieldContract, inv.Contract.Bytes())
	}
	w.U64(fieldAmount, inv.Amount)
	w.String(fieldBeneficiary, inv.Beneficiary)
	if inv.Expiry != 0 {
		w.U64(fieldExpiry, uint64(inv.Expiry))
	}
	if inv.Memo != "" {
		w.String(fieldMemo, inv.Memo)
	}
	return nil
}

// UnmarshalTLV implements codec.Unmarshaler.
func (inv *Invoice) UnmarshalTLV(r *codec.Reader) error {
	var err error
	if r.Has(fieldContract) {
		raw, err := r.Bytes(fieldContract)
		if err != nil {
			return err
		}
		if inv.Contract, err = cidutil.Cast(raw); err != nil {
			return errors.Malformed(errors.PhaseDecode, []string{"contract"}, "invalid contract id")
		}
	}
	if inv.Amount, err = r.U64(fieldAmount); err != nil {
		return err
	}
	if inv.Beneficiary, err = r.String(fieldBeneficiary); err != nil {
		return err
	}
	if r.Has(fieldExpiry) {
		exp, err := r.U64(fieldExpiry)
		if err != nil {
			return err
		}
		if exp == 0 || exp > maxExpiry {
			return errors.Malformed(errors.PhaseDecode, []string{"expiry"}, "non-canonical expiry %d", exp)
		}
		inv.Expiry = int64(exp)
	}
	if r.Has(fieldMemo) {
		if inv.Memo, err = r.String(fieldMemo); err != nil {
			return err
		}
		if inv.Memo == "" {
			return errors.Malformed(errors.PhaseDecode, []string{"memo"}, "empty memo must be omitted")
		}
	}
	return inv.Validate()
}

// Encode returns the canonical TLV encoding.
func (inv *Invoice) Encode() ([]byte, error) {
	return codec.Encode(codec.KindInvoice, inv)
}

// Decode parses an encoded invoice.
func Decode(buf []byte) (*Invoice, error) {
	inv := &Invoice{}
	if err := codec.Decode(buf, codec.KindInvoice, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// String returns the bech32 form, or "" if the invoice cannot be encoded.
func (inv *Invoice) String() string {
	s, err := inv.Text()
	if err != nil {
		return ""
	}
	return s
}

// Text returns the bech32 form or the encode failure.
func (inv *Invoice) Text() (string, error) {
	buf, err := inv.Encode()
	if err != nil {
		return "", err
	}
	return codec.EncodeBech32(Prefix, buf)
}

// Parse decodes the bech32 form.
func Parse(s string) (*Invoice, error) {
	buf, err := codec.DecodeBech32HRP(s, Prefix)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// Info is the JSON description of an invoice.
type Info struct {
	InvoiceString string `json:"invoiceString"`
	ContractID    string `json:"rgbContractId,omitempty"`
	Beneficiary   string `json:"beneficiary"`
	Memo          string `json:"memo,omitempty"`
	Amount        uint64 `json:"amount"`
	Expiry        int64  `json:"expiry,omitempty"`
}

// Info describes the invoice. The contract id uses the rgb bech32 form.
func (inv *Invoice) Info() (Info, error) {
	s, err := inv.Text()
	if err != nil {
		return Info{}, err
	}
	info := Info{
		InvoiceString: s,
		Beneficiary:   inv.Beneficiary,
		Memo:          inv.Memo,
		Amount:        inv.Amount,
		Expiry:        inv.Expiry,
	}
	if inv.Contract.Defined() {
		if info.ContractID, err = codec.EncodeBech32(contract.IDPrefix, inv.Contract.Bytes()); err != nil {
			return Info{}, err
		}
	}
	return info, nil
}

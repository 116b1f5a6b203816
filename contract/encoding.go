package contract

import (
	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/keys"
)

// TLV field ids. Genesis fields come first so the genesis encoding is a
// prefix-compatible subset of the full encoding.
const (
	fieldTicker      = 1
	fieldName        = 2
	fieldPrecision   = 3
	fieldSupply      = 4
	fieldOwner       = 5
	fieldAllocations = 6
	fieldScheme      = 7
	fieldIssuer      = 8
	fieldSignature   = 9

	fieldAllocOwner  = 1
	fieldAllocAmount = 2
)

type genesisView struct {
	c *Contract
}

func (v genesisView) MarshalTLV(w *codec.Writer) error {
	w.String(fieldTicker, v.c.Ticker)
	w.String(fieldName, v.c.Name)
	w.U8(fieldPrecision, v.c.Precision)
	w.U64(fieldSupply, v.c.Supply)
	w.String(fieldOwner, v.c.Owner)
	return nil
}

// MarshalTLV implements codec.Marshaler.
func (c *Contract) MarshalTLV(w *codec.Writer) error {
	if err := (genesisView{c}).MarshalTLV(w); err != nil {
		return err
	}
	w.List(fieldAllocations, len(c.alloc), func(i int, ew *codec.Writer) error {
		ew.String(fieldAllocOwner, c.alloc[i].Owner)
		ew.U64(fieldAllocAmount, c.alloc[i].Amount)
		return nil
	})
	if c.Signed() {
		w.U8(fieldScheme, uint8(c.Scheme))
		w.Bytes(fieldIssuer, c.Issuer)
		w.Bytes(fieldSignature, c.Signature)
	}
	return nil
}

// UnmarshalTLV implements codec.Unmarshaler.
func (c *Contract) UnmarshalTLV(r *codec.Reader) error {
	var err error
	if c.Ticker, err = r.String(fieldTicker); err != nil {
		return err
	}
	if c.Name, err = r.String(fieldName); err != nil {
		return err
	}
	if c.Precision, err = r.U8(fieldPrecision); err != nil {
		return err
	}
	if c.Supply, err = r.U64(fieldSupply); err != nil {
		return err
	}
	if c.Owner, err = r.String(fieldOwner); err != nil {
		return err
	}

	c.alloc = c.alloc[:0]
	err = r.List(fieldAllocations, func(_ int, er *codec.Reader) error {
		var a Allocation
		var err error
		if a.Owner, err = er.String(fieldAllocOwner); err != nil {
			return err
		}
		if a.Amount, err = er.U64(fieldAllocAmount); err != nil {
			return err
		}
		c.alloc = append(c.alloc, a)
		return nil
	})
	if err != nil {
		return err
	}

	if r.Has(fieldScheme) {
		s, err := r.U8(fieldScheme)
		if err != nil {
			return err
		}
		if c.Scheme, err = keys.ParseScheme(uint32(s)); err != nil {
			return errors.Malformed(errors.PhaseDecode, []string{"scheme"}, "unknown signature scheme %d", s)
		}
		if c.Issuer, err = r.Bytes(fieldIssuer); err != nil {
			return err
		}
		if c.Signature, err = r.Bytes(fieldSignature); err != nil {
			return err
		}
		if len(c.Signature) == 0 {
			return errors.Malformed(errors.PhaseDecode, []string{"signature"}, "empty signature")
		}
	}

	return c.Validate()
}

// Encode returns the canonical encoding of the full contract state.
func (c *Contract) Encode() ([]byte, error) {
	return codec.Encode(codec.KindContract, c)
}

// Decode parses and validates an encoded contract.
func Decode(buf []byte) (*Contract, error) {
	c := &Contract{}
	if err := codec.Decode(buf, codec.KindContract, c); err != nil {
		return nil, err
	}
	return c, nil
}

package contract

import (
	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/errors"
)

// Bech32 prefixes of the text forms.
const (
	GenesisPrefix     = "genesis"
	ConsignmentPrefix = "consignment"
)

// GenesisString returns the issuance parameters as bech32 text.
func (c *Contract) GenesisString() (string, error) {
	g, err := c.Genesis()
	if err != nil {
		return "", err
	}
	return codec.EncodeBech32(GenesisPrefix, g)
}

// ConsignmentString returns the full contract state as bech32 text.
func (c *Contract) ConsignmentString() (string, error) {
	buf, err := c.Encode()
	if err != nil {
		return "", err
	}
	return codec.EncodeBech32(ConsignmentPrefix, buf)
}

// ParseGenesis decodes genesis text into a contract holding its initial
// allocation.
func ParseGenesis(s string) (*Contract, error) {
	buf, err := codec.DecodeBech32HRP(s, GenesisPrefix)
	if err != nil {
		return nil, err
	}
	return DecodeGenesis(buf)
}

// DecodeGenesis decodes a genesis encoding.
func DecodeGenesis(buf []byte) (*Contract, error) {
	c := &Contract{}
	err := codec.Decode(buf, codec.KindContract, codec.UnmarshalFunc(func(r *codec.Reader) error {
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
		c.alloc = []Allocation{{Owner: c.Owner, Amount: c.Supply}}
		return c.Validate()
	}))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ParseConsignment decodes consignment text.
func ParseConsignment(s string) (*Contract, error) {
	buf, err := codec.DecodeBech32HRP(s, ConsignmentPrefix)
	if err != nil {
		return nil, err
	}
	c, err := Decode(buf)
	if err != nil {
		return nil, errors.WithOp(err, "consignment")
	}
	return c, nil
}

package abi

import (
	"math"

	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/keys"
	"github.com/wippyai/citadel-abi/resource"
)

// ContractIssue is contract_issue: a new asset with the whole supply
// allocated to owner.
func (c *Context) ContractIssue(ticker, name string, precision uint32, supply uint64, owner string) (resource.Handle, error) {
	return run(c, "contract_issue", func() (resource.Handle, error) {
		if precision > math.MaxUint8 {
			return 0, errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
				Path("precision").
				Value(precision).
				Detail("precision %d out of range", precision).
				Build()
		}
		ct, err := contract.Issue(ticker, name, uint8(precision), supply, owner)
		if err != nil {
			return 0, err
		}
		return c.b.contracts.Insert(ct)
	})
}

// ContractDecode is contract_decode. Truncated or otherwise invalid bytes
// yield MalformedInput.
func (c *Context) ContractDecode(data []byte) (resource.Handle, error) {
	return run(c, "contract_decode", func() (resource.Handle, error) {
		ct, err := contract.Decode(data)
		if err != nil {
			return 0, err
		}
		return c.b.contracts.Insert(ct)
	})
}

// ContractParse accepts the bech32 genesis or consignment text forms.
func (c *Context) ContractParse(s string) (resource.Handle, error) {
	return run(c, "contract_parse", func() (resource.Handle, error) {
		ct, err := contract.ParseConsignment(s)
		if err != nil {
			var gerr error
			if ct, gerr = contract.ParseGenesis(s); gerr != nil {
				return 0, err
			}
		}
		return c.b.contracts.Insert(ct)
	})
}

func (c *Context) contractBytes(h resource.Handle) ([]byte, error) {
	var out []byte
	err := c.b.contracts.With(h, resource.Shared, func(ct *contract.Contract) error {
		var err error
		out, err = ct.Encode()
		return err
	})
	return out, err
}

// ContractEncode is contract_encode.
func (c *Context) ContractEncode(h resource.Handle) (resource.Handle, error) {
	return run(c, "contract_encode", func() (resource.Handle, error) {
		out, err := c.contractBytes(h)
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Put(out)
	})
}

// ContractID is contract_id: the bech32 rgb form of the contract id.
func (c *Context) ContractID(h resource.Handle) (resource.Handle, error) {
	return run(c, "contract_id", func() (resource.Handle, error) {
		var id string
		err := c.b.contracts.With(h, resource.Shared, func(ct *contract.Contract) error {
			var err error
			id, err = ct.BechID()
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.PutString(id)
	})
}

// ContractBalance is contract_balance.
func (c *Context) ContractBalance(h resource.Handle, owner string) (uint64, error) {
	return run(c, "contract_balance", func() (uint64, error) {
		var v uint64
		err := c.b.contracts.With(h, resource.Shared, func(ct *contract.Contract) error {
			v = ct.Balance(owner)
			return nil
		})
		return v, err
	})
}

// ContractTransfer is contract_transfer.
func (c *Context) ContractTransfer(h resource.Handle, from, to string, amount uint64) error {
	return c.call("contract_transfer", func() error {
		return c.b.contracts.With(h, resource.Exclusive, func(ct *contract.Contract) error {
			return ct.Transfer(from, to, amount)
		})
	})
}

// ContractSign is contract_sign. The contract is held exclusively and the
// key shared; the contract lease is always taken first.
func (c *Context) ContractSign(h, key resource.Handle) error {
	return c.call("contract_sign", func() error {
		return c.b.contracts.With(h, resource.Exclusive, func(ct *contract.Contract) error {
			return c.b.keys.With(key, resource.Shared, func(k *keys.Key) error {
				return ct.Sign(k)
			})
		})
	})
}

// ContractVerify is contract_verify. An unsigned contract reports false.
func (c *Context) ContractVerify(h resource.Handle) (bool, error) {
	return run(c, "contract_verify", func() (bool, error) {
		var ok bool
		err := c.b.contracts.With(h, resource.Shared, func(ct *contract.Contract) error {
			var err error
			ok, err = ct.Verify()
			return err
		})
		return ok, err
	})
}

// ContractDestroy is contract_destroy.
func (c *Context) ContractDestroy(h resource.Handle) error {
	return c.call("contract_destroy", func() error {
		return c.b.contracts.Destroy(h)
	})
}

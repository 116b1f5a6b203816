// Package inspect classifies bech32 strings and describes their payload.
package inspect

import (
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/internal/cidutil"
	"github.com/wippyai/citadel-abi/invoice"
	"github.com/wippyai/citadel-abi/wallet"
)

// Status of an inspection. Values cross the boundary.
type Status int32

const (
	StatusOK          Status = 0
	StatusHRP         Status = 1
	StatusChecksum    Status = 2
	StatusEncoding    Status = 3
	StatusPayload     Status = 4
	StatusUnsupported Status = 5
	StatusInternal    Status = 6
	StatusNull        Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusHRP:
		return "hrp"
	case StatusChecksum:
		return "checksum"
	case StatusEncoding:
		return "encoding"
	case StatusPayload:
		return "payload"
	case StatusUnsupported:
		return "unsupported"
	case StatusInternal:
		return "internal"
	case StatusNull:
		return "null"
	}
	return "unknown"
}

// Category of a recognized string. Values cross the boundary.
type Category int32

const (
	CategoryUnknown        Category = 0
	CategoryBCAddress      Category = 0x0100
	CategoryLNBolt11       Category = 0x0101
	CategoryLNPBPInvoice   Category = 0x0210
	CategoryRGBContractID  Category = 0x0301
	CategoryRGBConsignment Category = 0x0320
	CategoryRGB20Asset     Category = 0x0330
)

func (c Category) String() string {
	switch c {
	case CategoryBCAddress:
		return "bitcoin address"
	case CategoryLNBolt11:
		return "lightning invoice"
	case CategoryLNPBPInvoice:
		return "invoice"
	case CategoryRGBContractID:
		return "contract id"
	case CategoryRGBConsignment:
		return "consignment"
	case CategoryRGB20Asset:
		return "asset genesis"
	}
	return "unknown"
}

// Info is the result of Inspect. On success Details is a JSON document;
// otherwise it is a human-readable message.
type Info struct {
	Details  string   `json:"details"`
	Status   Status   `json:"status"`
	Category Category `json:"category"`
	Bech32m  bool     `json:"bech32m"`
}

// AssetInfo describes an asset's issuance parameters.
type AssetInfo struct {
	ContractID string `json:"contractId"`
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	Supply     uint64 `json:"supply"`
	Precision  uint8  `json:"precision"`
}

// ConsignmentInfo describes a transferred contract state.
type ConsignmentInfo struct {
	Asset            AssetInfo `json:"asset"`
	Version          uint8     `json:"version"`
	AllocationsCount int       `json:"allocationsCount"`
	Signed           bool      `json:"signed"`
}

// AddressInfo describes a bitcoin address.
type AddressInfo struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Type    string `json:"type"`
}

func failure(status Status, msg string) Info {
	return Info{Status: status, Category: CategoryUnknown, Details: msg}
}

func withValue(cat Category, m bool, v any) Info {
	raw, err := json.Marshal(v)
	if err != nil {
		return Info{Status: StatusInternal, Category: cat, Details: "unable to encode details as JSON: " + err.Error()}
	}
	return Info{Status: StatusOK, Category: cat, Bech32m: m, Details: string(raw)}
}

// Inspect classifies s and describes its payload.
func Inspect(s string) Info {
	if s == "" {
		return failure(StatusNull, "value must not be empty")
	}

	hrp, groups, isM, err := codec.DecodeBech32Groups(s)
	if err != nil {
		return failure(classify(err), err.Error())
	}

	switch hrp {
	case "bc", "tb", "bcrt":
		return inspectAddress(s, hrp, isM)
	}
	if strings.HasPrefix(hrp, "lnbc") || strings.HasPrefix(hrp, "lntb") {
		return Info{Status: StatusUnsupported, Category: CategoryLNBolt11, Bech32m: isM, Details: "lightning invoices are not decoded"}
	}

	data, err := codec.Regroup(groups)
	if err != nil {
		return payloadErr(err)
	}
	switch hrp {
	case invoice.Prefix:
		return inspectInvoice(data, isM)
	case contract.IDPrefix:
		return inspectContractID(data, isM)
	case contract.GenesisPrefix:
		return inspectGenesis(data, isM)
	case contract.ConsignmentPrefix:
		return inspectConsignment(data, isM)
	}
	return failure(StatusUnsupported, "this kind of bech32 string is not supported")
}

func classify(err error) Status {
	var checksum bech32.ErrInvalidChecksum
	var separator bech32.ErrInvalidSeparatorIndex
	switch {
	case stderrors.As(err, &checksum):
		return StatusChecksum
	case stderrors.As(err, &separator):
		return StatusHRP
	}
	return StatusEncoding
}

func payloadErr(err error) Info {
	return failure(StatusPayload, "payload does not match bech32 type: "+err.Error())
}

func inspectInvoice(data []byte, isM bool) Info {
	inv, err := invoice.Decode(data)
	if err != nil {
		return payloadErr(err)
	}
	info, err := inv.Info()
	if err != nil {
		return failure(StatusInternal, err.Error())
	}
	return withValue(CategoryLNPBPInvoice, isM, info)
}

func inspectContractID(data []byte, isM bool) Info {
	id, err := cidutil.Cast(data)
	if err != nil {
		return payloadErr(err)
	}
	return withValue(CategoryRGBContractID, isM, map[string]string{"contractId": id.String()})
}

func assetInfo(c *contract.Contract) (AssetInfo, error) {
	id, err := c.BechID()
	if err != nil {
		return AssetInfo{}, err
	}
	return AssetInfo{
		ContractID: id,
		Ticker:     c.Ticker,
		Name:       c.Name,
		Owner:      c.Owner,
		Supply:     c.Supply,
		Precision:  c.Precision,
	}, nil
}

func inspectGenesis(data []byte, isM bool) Info {
	c, err := contract.DecodeGenesis(data)
	if err != nil {
		return payloadErr(err)
	}
	a, err := assetInfo(c)
	if err != nil {
		return failure(StatusInternal, err.Error())
	}
	return withValue(CategoryRGB20Asset, isM, a)
}

func inspectConsignment(data []byte, isM bool) Info {
	c, err := contract.Decode(data)
	if err != nil {
		return payloadErr(err)
	}
	a, err := assetInfo(c)
	if err != nil {
		return failure(StatusInternal, err.Error())
	}
	return withValue(CategoryRGBConsignment, isM, ConsignmentInfo{
		Version:          codec.Version,
		Asset:            a,
		AllocationsCount: len(c.Allocations()),
		Signed:           c.Signed(),
	})
}

func inspectAddress(s, hrp string, isM bool) Info {
	var net wallet.Network
	switch hrp {
	case "bc":
		net = wallet.Mainnet
	case "tb":
		net = wallet.Testnet
	case "bcrt":
		net = wallet.Regtest
	}
	addr, err := btcutil.DecodeAddress(s, net.Params())
	if err != nil {
		return payloadErr(err)
	}

	typ := "unknown"
	switch addr.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		typ = "p2wpkh"
	case *btcutil.AddressWitnessScriptHash:
		typ = "p2wsh"
	case *btcutil.AddressTaproot:
		typ = "p2tr"
	}
	return withValue(CategoryBCAddress, isM, AddressInfo{
		Address: addr.EncodeAddress(),
		Network: net.String(),
		Type:    typ,
	})
}

// Package contract models a fungible asset contract: immutable issuance
// parameters, an identifier derived from them, and a mutable allocation
// table moved by transfers.
package contract

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ipfs/go-cid"

	"github.com/wippyai/citadel-abi/codec"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/internal/cidutil"
	"github.com/wippyai/citadel-abi/keys"
)

// IDPrefix is the bech32 human-readable part of contract identifiers.
const IDPrefix = "rgb"

// Limits on issuance parameters.
const (
	MaxTickerLen = 8
	MaxNameLen   = 64
	MaxOwnerLen  = 128
	MaxPrecision = 18
)

// Allocation assigns an amount of the asset to an owner.
type Allocation struct {
	Owner  string
	Amount uint64
}

// Contract is a fungible asset contract.
type Contract struct {
	Ticker    string
	Name      string
	Owner     string // initial owner, part of genesis
	Issuer    []byte
	Signature []byte
	alloc     []Allocation
	Supply    uint64
	Precision uint8
	Scheme    keys.Scheme
}

// Issue creates a contract with the whole supply allocated to owner.
func Issue(ticker, name string, precision uint8, supply uint64, owner string) (*Contract, error) {
	c := &Contract{
		Ticker:    ticker,
		Name:      name,
		Precision: precision,
		Supply:    supply,
		Owner:     owner,
		alloc:     []Allocation{{Owner: owner, Amount: supply}},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func invalid(field, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
		Path(field).
		Detail(detail, args...).
		Build()
}

func validTicker(s string) bool {
	if len(s) == 0 || len(s) > MaxTickerLen {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

func validOwner(s string) bool {
	return s != "" && len(s) <= MaxOwnerLen && utf8.ValidString(s) && strings.TrimSpace(s) == s
}

// Validate checks issuance parameters and the allocation table.
func (c *Contract) Validate() error {
	if !validTicker(c.Ticker) {
		return invalid("ticker", "ticker %q must be 1..%d upper-case letters or digits", c.Ticker, MaxTickerLen)
	}
	if n := utf8.RuneCountInString(c.Name); n == 0 || n > MaxNameLen || !utf8.ValidString(c.Name) {
		return invalid("name", "name must be 1..%d characters", MaxNameLen)
	}
	if c.Precision > MaxPrecision {
		return invalid("precision", "precision %d exceeds %d", c.Precision, MaxPrecision)
	}
	if c.Supply == 0 {
		return invalid("supply", "supply must be positive")
	}
	if !validOwner(c.Owner) {
		return invalid("owner", "owner must be 1..%d bytes without surrounding space", MaxOwnerLen)
	}

	var sum uint64
	for i, a := range c.alloc {
		if !validOwner(a.Owner) {
			return invalid("allocations", "entry %d: bad owner", i)
		}
		if a.Amount == 0 {
			return invalid("allocations", "entry %d: zero amount", i)
		}
		if i > 0 && c.alloc[i-1].Owner >= a.Owner {
			return invalid("allocations", "entry %d: owners not strictly ordered", i)
		}
		if sum > math.MaxUint64-a.Amount {
			return invalid("allocations", "allocation overflow")
		}
		sum += a.Amount
	}
	if sum != c.Supply {
		return invalid("allocations", "allocations sum to %d, supply is %d", sum, c.Supply)
	}

	if (len(c.Issuer) == 0) != (len(c.Signature) == 0) {
		return invalid("signature", "issuer key and signature must be set together")
	}
	if len(c.Issuer) > 0 {
		if len(c.Issuer) != c.Scheme.PublicSize() {
			return invalid("issuer", "issuer key does not match scheme %s", c.Scheme)
		}
	}
	return nil
}

// Genesis returns the canonical encoding of the issuance parameters.
func (c *Contract) Genesis() ([]byte, error) {
	return codec.Encode(codec.KindContract, genesisView{c})
}

// ID returns the content identifier of the genesis encoding.
// Transfers and signatures do not change it.
func (c *Contract) ID() (cid.Cid, error) {
	g, err := c.Genesis()
	if err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(g)
	if err != nil {
		return cid.Undef, errors.Wrap(errors.PhaseEncode, errors.KindSerialization, err, "contract id")
	}
	return id, nil
}

// BechID returns the contract id as a bech32 string with the rgb prefix.
func (c *Contract) BechID() (string, error) {
	id, err := c.ID()
	if err != nil {
		return "", err
	}
	return codec.EncodeBech32(IDPrefix, id.Bytes())
}

// ParseID accepts either a CID string or an rgb bech32 id.
func ParseID(s string) (cid.Cid, error) {
	if strings.HasPrefix(strings.ToLower(s), IDPrefix+"1") {
		raw, err := codec.DecodeBech32HRP(s, IDPrefix)
		if err != nil {
			return cid.Undef, err
		}
		id, err := cidutil.Cast(raw)
		if err != nil {
			return cid.Undef, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "contract id payload")
		}
		return id, nil
	}
	id, err := cidutil.Parse(s)
	if err != nil {
		return cid.Undef, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "contract id")
	}
	return id, nil
}

// Allocations returns a copy of the allocation table ordered by owner.
func (c *Contract) Allocations() []Allocation {
	return slices.Clone(c.alloc)
}

func (c *Contract) find(owner string) (int, bool) {
	return slices.BinarySearchFunc(c.alloc, owner, func(a Allocation, o string) int {
		return strings.Compare(a.Owner, o)
	})
}

// Balance returns the amount allocated to owner.
func (c *Contract) Balance(owner string) uint64 {
	if i, ok := c.find(owner); ok {
		return c.alloc[i].Amount
	}
	return 0
}

// Transfer moves amount from one owner to another. Supply is conserved.
func (c *Contract) Transfer(from, to string, amount uint64) error {
	if amount == 0 {
		return invalid("amount", "transfer amount must be positive")
	}
	if !validOwner(from) || !validOwner(to) {
		return invalid("owner", "owner must be 1..%d bytes without surrounding space", MaxOwnerLen)
	}
	if from == to {
		return invalid("owner", "sender and recipient are the same")
	}
	fi, ok := c.find(from)
	if !ok || c.alloc[fi].Amount < amount {
		return invalid("amount", "insufficient balance: %s has %d, needs %d", from, c.Balance(from), amount)
	}

	c.alloc[fi].Amount -= amount
	if c.alloc[fi].Amount == 0 {
		c.alloc = slices.Delete(c.alloc, fi, fi+1)
	}
	if ti, ok := c.find(to); ok {
		c.alloc[ti].Amount += amount
	} else {
		c.alloc = slices.Insert(c.alloc, ti, Allocation{Owner: to, Amount: amount})
	}
	return nil
}

// Sign attaches an issuer signature over the contract id bytes.
func (c *Contract) Sign(k *keys.Key) error {
	id, err := c.ID()
	if err != nil {
		return err
	}
	sig, err := k.Sign(id.Bytes())
	if err != nil {
		return err
	}
	c.Scheme = k.Scheme()
	c.Issuer = k.Public()
	c.Signature = sig
	return nil
}

// Signed reports whether an issuer signature is attached.
func (c *Contract) Signed() bool {
	return len(c.Signature) > 0
}

// Verify checks the issuer signature. An unsigned contract does not verify.
func (c *Contract) Verify() (bool, error) {
	if !c.Signed() {
		return false, nil
	}
	id, err := c.ID()
	if err != nil {
		return false, err
	}
	return keys.Verify(c.Scheme, c.Issuer, id.Bytes(), c.Signature)
}

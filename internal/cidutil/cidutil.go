// Package cidutil derives content identifiers for encoded objects.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns a CIDv1 using the raw multicodec and a sha2-256 multihash.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify reports whether id is the raw sha2-256 CID of data.
func Verify(id cid.Cid, data []byte) bool {
	want, err := Sum(data)
	if err != nil {
		return false
	}
	return want.Equals(id)
}

// Parse decodes a CID string and requires the raw sha2-256 form.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	return check(id)
}

// Cast decodes binary CID bytes and requires the raw sha2-256 form.
func Cast(b []byte) (cid.Cid, error) {
	id, err := cid.Cast(b)
	if err != nil {
		return cid.Undef, err
	}
	return check(id)
}

func check(id cid.Cid) (cid.Cid, error) {
	p := id.Prefix()
	if p.Version != 1 || p.Codec != cid.Raw || p.MhType != multihash.SHA2_256 {
		return cid.Undef, errUnsupported
	}
	return id, nil
}

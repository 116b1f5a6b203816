package codec

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/wippyai/citadel-abi/errors"
)

// EncodeBech32 encodes data as a bech32 string with no length limit.
func EncodeBech32(hrp string, data []byte) (string, error) {
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.PhaseEncode, errors.KindSerialization, err, "bech32 regroup")
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", errors.Wrap(errors.PhaseEncode, errors.KindSerialization, err, "bech32 encode")
	}
	return s, nil
}

// DecodeBech32Groups decodes a bech32 or bech32m string of any length into
// its human-readable part and 5-bit groups. The bool reports bech32m.
func DecodeBech32Groups(s string) (string, []byte, bool, error) {
	hrp, conv, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", nil, false, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "bech32 decode")
	}
	// the checksum constant is not exposed by the no-limit decoder
	plain, err := bech32.Encode(hrp, conv)
	isM := err != nil || plain != strings.ToLower(s)
	return hrp, conv, isM, nil
}

// Regroup converts 5-bit groups to bytes. Non-zero padding is rejected.
func Regroup(groups []byte) ([]byte, error) {
	data, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "bech32 payload")
	}
	return data, nil
}

// DecodeBech32 decodes a bech32 or bech32m string of any length into its
// human-readable part and 8-bit payload. The bool reports bech32m.
func DecodeBech32(s string) (string, []byte, bool, error) {
	hrp, groups, isM, err := DecodeBech32Groups(s)
	if err != nil {
		return "", nil, false, err
	}
	data, err := Regroup(groups)
	if err != nil {
		return "", nil, false, err
	}
	return hrp, data, isM, nil
}

// DecodeBech32HRP decodes s and checks its human-readable part.
func DecodeBech32HRP(s, hrp string) ([]byte, error) {
	got, data, _, err := DecodeBech32(s)
	if err != nil {
		return nil, err
	}
	if got != hrp {
		return nil, errors.Malformed(errors.PhaseDecode, nil, "bech32 prefix %q, want %q", got, hrp)
	}
	return data, nil
}

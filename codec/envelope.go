package codec

import (
	"bytes"

	"github.com/wippyai/citadel-abi/errors"
)

// Magic opens every encoded object.
var Magic = [4]byte{'C', 'T', 'D', 'L'}

// Version is the only envelope version this package reads or writes.
const Version uint8 = 1

// EnvelopeLen is the size of magic, version and kind.
const EnvelopeLen = len(Magic) + 2

// Kind identifies the encoded object type.
type Kind uint8

const (
	KindWallet   Kind = 1
	KindContract Kind = 2
	KindInvoice  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindWallet:
		return "wallet"
	case KindContract:
		return "contract"
	case KindInvoice:
		return "invoice"
	}
	return "unknown"
}

// Encode produces the canonical encoding of m. Encoding is deterministic;
// on failure no bytes are returned.
func Encode(kind Kind, m Marshaler) ([]byte, error) {
	w := NewWriter()
	if err := m.MarshalTLV(w); err != nil && w.Err() == nil {
		return nil, asSerialization(nil, err)
	}
	body, err := w.Result()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, EnvelopeLen+len(body))
	out = append(out, Magic[:]...)
	out = append(out, Version, byte(kind))
	return append(out, body...), nil
}

// Decode checks the envelope and decodes the body into u.
// Every failure is a malformed-input error.
func Decode(buf []byte, kind Kind, u Unmarshaler) error {
	if len(buf) < EnvelopeLen {
		return errors.Malformed(errors.PhaseDecode, nil, "short envelope: %d bytes", len(buf))
	}
	if !bytes.Equal(buf[:len(Magic)], Magic[:]) {
		return errors.Malformed(errors.PhaseDecode, nil, "bad magic %x", buf[:len(Magic)])
	}
	if v := buf[len(Magic)]; v != Version {
		return errors.Malformed(errors.PhaseDecode, nil, "unsupported version %d", v)
	}
	if k := Kind(buf[len(Magic)+1]); k != kind {
		return errors.Malformed(errors.PhaseDecode, nil, "object kind %s, want %s", k, kind)
	}

	r, err := NewReader(buf[EnvelopeLen:])
	if err != nil {
		return err
	}
	if err := u.UnmarshalTLV(r); err != nil {
		return asMalformed(nil, err)
	}
	return r.Done()
}

// PeekKind returns the object kind of an encoded buffer without decoding it.
func PeekKind(buf []byte) (Kind, bool) {
	if len(buf) < EnvelopeLen || !bytes.Equal(buf[:len(Magic)], Magic[:]) || buf[len(Magic)] != Version {
		return 0, false
	}
	return Kind(buf[len(Magic)+1]), true
}

// Package keys wraps the signing schemes reachable through key handles.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"github.com/wippyai/citadel-abi/buffer"
	"github.com/wippyai/citadel-abi/errors"
)

// Scheme identifies a signature scheme. Values cross the boundary.
type Scheme uint8

const (
	SchemeSecp256k1  Scheme = 1
	SchemeEd25519    Scheme = 2
	SchemeDilithium3 Scheme = 3
)

// MessageTag domain-separates secp256k1 message digests.
var MessageTag = []byte("citadel/message")

func (s Scheme) String() string {
	switch s {
	case SchemeSecp256k1:
		return "secp256k1"
	case SchemeEd25519:
		return "ed25519"
	case SchemeDilithium3:
		return "dilithium3"
	}
	return "unknown"
}

// ParseScheme validates a scheme value received from a caller.
func ParseScheme(v uint32) (Scheme, error) {
	s := Scheme(v)
	switch s {
	case SchemeSecp256k1, SchemeEd25519, SchemeDilithium3:
		return s, nil
	}
	return 0, errors.InvalidArgument(errors.PhaseDispatch, "unknown signature scheme %d", v)
}

// SecretSize returns the length of the secret accepted by FromSecret.
func (s Scheme) SecretSize() int {
	switch s {
	case SchemeSecp256k1:
		return btcec.PrivKeyBytesLen
	case SchemeEd25519:
		return ed25519.SeedSize
	case SchemeDilithium3:
		return mode3.SeedSize
	}
	return 0
}

// PublicSize returns the length of a serialized public key.
func (s Scheme) PublicSize() int {
	switch s {
	case SchemeSecp256k1:
		return schnorr.PubKeyBytesLen
	case SchemeEd25519:
		return ed25519.PublicKeySize
	case SchemeDilithium3:
		return mode3.PublicKeySize
	}
	return 0
}

// SignatureSize returns the length of a signature.
func (s Scheme) SignatureSize() int {
	switch s {
	case SchemeSecp256k1:
		return schnorr.SignatureSize
	case SchemeEd25519:
		return ed25519.SignatureSize
	case SchemeDilithium3:
		return mode3.SignatureSize
	}
	return 0
}

// Key is a private signing key. Secret material is wiped by Zero.
type Key struct {
	ec     *btcec.PrivateKey
	pq     *mode3.PrivateKey
	ed     ed25519.PrivateKey
	secret []byte
	pub    []byte
	scheme Scheme
}

// Generate creates a fresh key from the system random source.
func Generate(s Scheme) (*Key, error) {
	return generate(s, rand.Reader)
}

func generate(s Scheme, r io.Reader) (*Key, error) {
	if s.SecretSize() == 0 {
		return nil, errors.InvalidArgument(errors.PhaseCreate, "unknown signature scheme %d", s)
	}
	for {
		seed := make([]byte, s.SecretSize())
		if _, err := io.ReadFull(r, seed); err != nil {
			return nil, errors.Allocation("key", err)
		}
		k, err := FromSecret(s, seed)
		buffer.Wipe(seed)
		// a secp256k1 draw outside [1, n) is retried
		if err != nil && s == SchemeSecp256k1 {
			continue
		}
		return k, err
	}
}

// FromSecret rebuilds a key from its exported secret. The input is copied.
func FromSecret(s Scheme, secret []byte) (*Key, error) {
	if s.SecretSize() == 0 {
		return nil, errors.InvalidArgument(errors.PhaseCreate, "unknown signature scheme %d", s)
	}
	if len(secret) != s.SecretSize() {
		return nil, errors.InvalidArgument(errors.PhaseCreate, "%s secret must be %d bytes, got %d", s, s.SecretSize(), len(secret))
	}

	k := &Key{scheme: s, secret: bytes.Clone(secret)}
	switch s {
	case SchemeSecp256k1:
		priv, _ := btcec.PrivKeyFromBytes(k.secret)
		if priv.Key.IsZero() || !bytes.Equal(priv.Serialize(), k.secret) {
			k.Zero()
			return nil, errors.InvalidArgument(errors.PhaseCreate, "secp256k1 secret out of range")
		}
		k.ec = priv
		k.pub = schnorr.SerializePubKey(priv.PubKey())
	case SchemeEd25519:
		k.ed = ed25519.NewKeyFromSeed(k.secret)
		k.pub = bytes.Clone(k.ed.Public().(ed25519.PublicKey))
	case SchemeDilithium3:
		var seed [mode3.SeedSize]byte
		copy(seed[:], k.secret)
		pk, sk := mode3.NewKeyFromSeed(&seed)
		buffer.Wipe(seed[:])
		k.pq = sk
		k.pub = pk.Bytes()
	}
	return k, nil
}

// FromPrivateKey adopts a secp256k1 key derived elsewhere.
func FromPrivateKey(priv *btcec.PrivateKey) *Key {
	return &Key{
		scheme: SchemeSecp256k1,
		ec:     priv,
		secret: priv.Serialize(),
		pub:    schnorr.SerializePubKey(priv.PubKey()),
	}
}

// Scheme returns the key's signature scheme.
func (k *Key) Scheme() Scheme {
	return k.scheme
}

// Public returns a copy of the serialized public key.
func (k *Key) Public() []byte {
	return bytes.Clone(k.pub)
}

// Secret returns a copy of the secret accepted by FromSecret.
// The caller is responsible for wiping it.
func (k *Key) Secret() []byte {
	return bytes.Clone(k.secret)
}

// Sign signs msg. secp256k1 signs a tagged hash with BIP-340 Schnorr,
// dilithium3 signs the SHA3-256 digest, ed25519 signs msg directly.
func (k *Key) Sign(msg []byte) ([]byte, error) {
	if k.secret == nil {
		return nil, errors.InvalidArgument(errors.PhaseDispatch, "key material has been wiped")
	}
	switch k.scheme {
	case SchemeSecp256k1:
		h := chainhash.TaggedHash(MessageTag, msg)
		sig, err := schnorr.Sign(k.ec, h[:])
		if err != nil {
			return nil, errors.Internal(errors.PhaseDispatch, "schnorr sign", err)
		}
		return sig.Serialize(), nil
	case SchemeEd25519:
		return ed25519.Sign(k.ed, msg), nil
	case SchemeDilithium3:
		digest := sha3.Sum256(msg)
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(k.pq, digest[:], sig)
		return sig, nil
	}
	return nil, errors.Internal(errors.PhaseDispatch, "key has no scheme", nil)
}

// Zero wipes the secret material. The key is unusable afterwards.
func (k *Key) Zero() {
	buffer.Wipe(k.secret)
	k.secret = nil
	if k.ec != nil {
		k.ec.Zero()
		k.ec = nil
	}
	buffer.Wipe(k.ed)
	k.ed = nil
	if k.pq != nil {
		wipeDilithium(k.pq)
		k.pq = nil
	}
}

// wipeDilithium zeroes an expanded dilithium3 private key in place. Every
// field of the key is a fixed-size array, so the zero value overwrites it.
func wipeDilithium(sk *mode3.PrivateKey) {
	*sk = mode3.PrivateKey{}
}

// Drop implements resource.Dropper.
func (k *Key) Drop() {
	k.Zero()
}

// Verify checks sig over msg against a serialized public key.
// A well-formed but wrong signature yields false with no error.
func Verify(s Scheme, pub, msg, sig []byte) (bool, error) {
	if s.PublicSize() == 0 {
		return false, errors.InvalidArgument(errors.PhaseDispatch, "unknown signature scheme %d", s)
	}
	if len(pub) != s.PublicSize() {
		return false, errors.InvalidArgument(errors.PhaseDispatch, "%s public key must be %d bytes, got %d", s, s.PublicSize(), len(pub))
	}
	if len(sig) != s.SignatureSize() {
		return false, nil
	}

	switch s {
	case SchemeSecp256k1:
		pk, err := schnorr.ParsePubKey(pub)
		if err != nil {
			return false, errors.InvalidArgument(errors.PhaseDispatch, "invalid secp256k1 public key")
		}
		parsed, err := schnorr.ParseSignature(sig)
		if err != nil {
			return false, nil
		}
		h := chainhash.TaggedHash(MessageTag, msg)
		return parsed.Verify(h[:], pk), nil
	case SchemeEd25519:
		return ed25519.Verify(ed25519.PublicKey(pub), msg, sig), nil
	case SchemeDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false, errors.InvalidArgument(errors.PhaseDispatch, "invalid dilithium3 public key")
		}
		digest := sha3.Sum256(msg)
		return mode3.Verify(&pk, digest[:], sig), nil
	}
	return false, nil
}

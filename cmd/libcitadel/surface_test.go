package main

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/keys"
	"github.com/wippyai/citadel-abi/resource"
)

func setup(t *testing.T) uint64 {
	t.Helper()
	t.Setenv("CITADEL_NETWORK", "testnet")
	require.NoError(t, initialize(""))
	t.Cleanup(func() { _ = abi.Teardown() })

	ctx, err := abi.Default().ContextNew()
	require.NoError(t, err)
	return uint64(ctx)
}

func TestUninitialized(t *testing.T) {
	require.Nil(t, abi.Default())
	_, st := resolve(1)
	assert.Equal(t, int32(errors.CodeInvalidArgument), st)
}

func TestInitialize_Twice(t *testing.T) {
	setup(t)
	assert.Equal(t, int32(errors.CodeInvalidArgument), code(initialize("")))
}

func TestProduce(t *testing.T) {
	ctx := setup(t)

	var key resource.Handle
	st := produce(ctx, "key_generate", &key, func(c *abi.Context) (resource.Handle, error) {
		return c.KeyGenerate(uint32(keys.SchemeEd25519))
	})
	require.Equal(t, int32(errors.CodeOK), st)
	assert.NotZero(t, key)

	var fam uint32
	st = produce(ctx, "handle_family", &fam, func(c *abi.Context) (uint32, error) {
		f, err := c.HandleFamily(key)
		return uint32(f), err
	})
	require.Equal(t, int32(errors.CodeOK), st)
	assert.Equal(t, uint32(resource.FamilyKey), fam)
}

func TestProduce_NullOut(t *testing.T) {
	ctx := setup(t)
	ran := false
	st := produce[resource.Handle](ctx, "key_generate", nil, func(c *abi.Context) (resource.Handle, error) {
		ran = true
		return c.KeyGenerate(uint32(keys.SchemeEd25519))
	})
	assert.Equal(t, int32(errors.CodeInvalidArgument), st)
	assert.False(t, ran)

	c, _ := resolve(ctx)
	require.NotNil(t, c)
	assert.Equal(t, errors.CodeInvalidArgument, c.Status())
	assert.Contains(t, c.Detail(), "null pointer")
}

func TestExec_ArgumentErrorsAreRecorded(t *testing.T) {
	ctx := setup(t)
	st := exec(ctx, "wallet_add_utxo", func(c *abi.Context) error {
		_, err := bytesArg("txid", nil, 32)
		return err
	})
	assert.Equal(t, int32(errors.CodeInvalidArgument), st)

	c, _ := resolve(ctx)
	assert.Equal(t, errors.CodeInvalidArgument, c.Status())
}

func TestExec_OperationStatus(t *testing.T) {
	ctx := setup(t)
	st := exec(ctx, "wallet_destroy", func(c *abi.Context) error {
		return c.WalletDestroy(12345)
	})
	assert.Equal(t, int32(errors.CodeInvalidHandle), st)
}

func TestResolve_BadContext(t *testing.T) {
	ctx := setup(t)

	_, st := resolve(0)
	assert.Equal(t, int32(errors.CodeInvalidHandle), st)

	var key resource.Handle
	require.Equal(t, int32(errors.CodeOK), produce(ctx, "key_generate", &key, func(c *abi.Context) (resource.Handle, error) {
		return c.KeyGenerate(uint32(keys.SchemeSecp256k1))
	}))
	_, st = resolve(uint64(key))
	assert.Equal(t, int32(errors.CodeTypeMismatch), st)
}

func TestBytesArg(t *testing.T) {
	b, err := bytesArg("x", nil, 0)
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = bytesArg("x", nil, 4)
	assert.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))

	src := []byte("abc")
	b, err = bytesArg("x", unsafe.Pointer(&src[0]), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

package buffer

import (
	"bytes"
	"testing"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

func TestTable_PutRead(t *testing.T) {
	tab := NewTable(resource.NewRegistry())
	src := []byte("payload")

	h, err := tab.Put(src)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	src[0] = 'X'

	n, err := tab.Len(h)
	if err != nil || n != 7 {
		t.Fatalf("Len = %d, %v", n, err)
	}

	dst := make([]byte, 3)
	n, err = tab.Read(h, dst)
	if err != nil || n != 3 || string(dst) != "pay" {
		t.Fatalf("Read = %d %q %v", n, dst, err)
	}

	got, err := tab.Bytes(h)
	if err != nil || string(got) != "payload" {
		t.Fatalf("Bytes = %q, %v (input must be copied)", got, err)
	}

	if err := tab.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := tab.Release(h); errors.CodeOf(err) != errors.CodeInvalidHandle {
		t.Fatalf("double release: got %v", err)
	}
	if _, err := tab.Len(h); errors.CodeOf(err) != errors.CodeInvalidHandle {
		t.Fatalf("use after release: got %v", err)
	}
}

func TestTable_Empty(t *testing.T) {
	tab := NewTable(resource.NewRegistry())
	h, err := tab.Put(nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	n, err := tab.Len(h)
	if err != nil || n != 0 {
		t.Fatalf("Len = %d, %v", n, err)
	}
}

func TestTable_SecretRelease(t *testing.T) {
	reg := resource.NewRegistry()
	tab := NewTable(reg)

	h, err := tab.PutSecret([]byte("xprv-secret"))
	if err != nil {
		t.Fatalf("PutSecret: %v", err)
	}

	var held *Buffer
	reg.With(h, resource.FamilySecret, resource.Shared, func(v any) error {
		held = v.(*Buffer)
		return nil
	})
	raw := held.data

	if err := tab.Release(h); errors.CodeOf(err) != errors.CodeTypeMismatch {
		t.Fatalf("generic release of secret: got %v", err)
	}

	got, err := tab.Bytes(h)
	if err != nil || string(got) != "xprv-secret" {
		t.Fatalf("secret readable after refused release: %q %v", got, err)
	}

	if err := tab.ReleaseSecret(h); err != nil {
		t.Fatalf("ReleaseSecret: %v", err)
	}
	if !bytes.Equal(raw, make([]byte, len(raw))) {
		t.Fatalf("secret not zeroed: %q", raw)
	}
}

func TestTable_ReleaseSecretOnPlain(t *testing.T) {
	tab := NewTable(resource.NewRegistry())
	h, _ := tab.Put([]byte("plain"))
	if err := tab.ReleaseSecret(h); errors.CodeOf(err) != errors.CodeTypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestTable_WrongFamily(t *testing.T) {
	reg := resource.NewRegistry()
	tab := NewTable(reg)
	h, _ := reg.Insert(resource.FamilyWallet, "w")

	if _, err := tab.Len(h); errors.CodeOf(err) != errors.CodeTypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
	if _, err := tab.Len(0); errors.CodeOf(err) != errors.CodeInvalidHandle {
		t.Fatalf("expected InvalidHandle, got %v", err)
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Fatalf("Wipe left %v", b)
	}
	Wipe(nil)
}

package abi

import (
	"github.com/wippyai/citadel-abi/keys"
	"github.com/wippyai/citadel-abi/resource"
)

// KeyGenerate is key_generate.
func (c *Context) KeyGenerate(scheme uint32) (resource.Handle, error) {
	return run(c, "key_generate", func() (resource.Handle, error) {
		s, err := keys.ParseScheme(scheme)
		if err != nil {
			return 0, err
		}
		k, err := keys.Generate(s)
		if err != nil {
			return 0, err
		}
		return c.b.keys.Insert(k)
	})
}

// KeyImport is key_import. The secret is borrowed and copied.
func (c *Context) KeyImport(scheme uint32, secret []byte) (resource.Handle, error) {
	return run(c, "key_import", func() (resource.Handle, error) {
		s, err := keys.ParseScheme(scheme)
		if err != nil {
			return 0, err
		}
		k, err := keys.FromSecret(s, secret)
		if err != nil {
			return 0, err
		}
		return c.b.keys.Insert(k)
	})
}

// KeyPublic is key_public.
func (c *Context) KeyPublic(h resource.Handle) (resource.Handle, error) {
	return run(c, "key_public", func() (resource.Handle, error) {
		var pub []byte
		err := c.b.keys.With(h, resource.Shared, func(k *keys.Key) error {
			pub = k.Public()
			return nil
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Put(pub)
	})
}

// KeyScheme returns the signature scheme of a key handle.
func (c *Context) KeyScheme(h resource.Handle) (uint32, error) {
	return run(c, "key_scheme", func() (uint32, error) {
		var s keys.Scheme
		err := c.b.keys.With(h, resource.Shared, func(k *keys.Key) error {
			s = k.Scheme()
			return nil
		})
		return uint32(s), err
	})
}

// KeySign is key_sign.
func (c *Context) KeySign(h resource.Handle, msg []byte) (resource.Handle, error) {
	return run(c, "key_sign", func() (resource.Handle, error) {
		var sig []byte
		err := c.b.keys.With(h, resource.Shared, func(k *keys.Key) error {
			var err error
			sig, err = k.Sign(msg)
			return err
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Put(sig)
	})
}

// KeyVerify is key_verify. It touches no handle.
func (c *Context) KeyVerify(scheme uint32, pub, msg, sig []byte) (bool, error) {
	return run(c, "key_verify", func() (bool, error) {
		s, err := keys.ParseScheme(scheme)
		if err != nil {
			return false, err
		}
		return keys.Verify(s, pub, msg, sig)
	})
}

// KeyExportSecret is key_export_secret. The result is a secret buffer.
func (c *Context) KeyExportSecret(h resource.Handle) (resource.Handle, error) {
	return run(c, "key_export_secret", func() (resource.Handle, error) {
		var secret []byte
		err := c.b.keys.With(h, resource.Shared, func(k *keys.Key) error {
			secret = k.Secret()
			return nil
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.Adopt(secret)
	})
}

// KeyDestroy is key_destroy. Secret material is zeroed.
func (c *Context) KeyDestroy(h resource.Handle) error {
	return c.call("key_destroy", func() error {
		return c.b.keys.Destroy(h)
	})
}

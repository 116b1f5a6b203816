package abi

import (
	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/internal/cidutil"
	"github.com/wippyai/citadel-abi/resource"
	"github.com/wippyai/citadel-abi/transport"
)

// TransportConnect is transport_connect. It blocks until the relay is
// reachable or timeoutMs elapses.
func (c *Context) TransportConnect(target string, timeoutMs int64) (resource.Handle, error) {
	return run(c, "transport_connect", func() (resource.Handle, error) {
		ctx, cancel, err := deadline("transport_connect", timeoutMs)
		if err != nil {
			return 0, err
		}
		defer cancel()

		s, err := transport.Connect(ctx, target, c.b.dial, c.b.backoff())
		if err != nil {
			return 0, err
		}
		c.b.log.Debug("transport session opened", zap.String("target", target))
		return c.b.sessions.Insert(s)
	})
}

// TransportPublish is transport_publish. The contract is encoded under a
// shared lease that is released before any I/O; the session is held
// exclusively for the round trip. Waiting for the session counts against
// timeoutMs. The result is the relay content id.
func (c *Context) TransportPublish(session, contractH resource.Handle, timeoutMs int64) (resource.Handle, error) {
	return run(c, "transport_publish", func() (resource.Handle, error) {
		ctx, cancel, err := deadline("transport_publish", timeoutMs)
		if err != nil {
			return 0, err
		}
		defer cancel()

		data, err := c.contractBytes(contractH)
		if err != nil {
			return 0, err
		}
		var id string
		err = c.b.sessions.WithContext(ctx, session, resource.Exclusive, func(s *transport.Session) error {
			cid, err := s.Publish(ctx, data)
			if err != nil {
				return err
			}
			id = cid.String()
			return nil
		})
		if err != nil {
			return 0, err
		}
		return c.b.bufs.PutString(id)
	})
}

// TransportFetch is transport_fetch. It retrieves the object stored under
// a relay content id and decodes it as a contract.
func (c *Context) TransportFetch(session resource.Handle, id string, timeoutMs int64) (resource.Handle, error) {
	return run(c, "transport_fetch", func() (resource.Handle, error) {
		ctx, cancel, err := deadline("transport_fetch", timeoutMs)
		if err != nil {
			return 0, err
		}
		defer cancel()

		cid, err := cidutil.Parse(id)
		if err != nil {
			return 0, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "content id")
		}
		var data []byte
		err = c.b.sessions.WithContext(ctx, session, resource.Exclusive, func(s *transport.Session) error {
			var err error
			data, err = s.Fetch(ctx, cid)
			return err
		})
		if err != nil {
			return 0, err
		}
		ct, err := contract.Decode(data)
		if err != nil {
			return 0, err
		}
		return c.b.contracts.Insert(ct)
	})
}

// TransportHas is transport_has.
func (c *Context) TransportHas(session resource.Handle, id string, timeoutMs int64) (bool, error) {
	return run(c, "transport_has", func() (bool, error) {
		ctx, cancel, err := deadline("transport_has", timeoutMs)
		if err != nil {
			return false, err
		}
		defer cancel()

		cid, err := cidutil.Parse(id)
		if err != nil {
			return false, errors.Wrap(errors.PhaseDecode, errors.KindMalformedInput, err, "content id")
		}
		var ok bool
		err = c.b.sessions.WithContext(ctx, session, resource.Exclusive, func(s *transport.Session) error {
			var err error
			ok, err = s.Has(ctx, cid)
			return err
		})
		return ok, err
	})
}

// TransportClose is transport_close. The connection is closed once any
// in-flight call on the session has returned.
func (c *Context) TransportClose(session resource.Handle) error {
	return c.call("transport_close", func() error {
		return c.b.sessions.Destroy(session)
	})
}

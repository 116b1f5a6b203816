package transport

import (
	"context"
	"math/rand"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/internal/cidutil"
)

// Client talks to a relay over a single gRPC connection. Calls are not retried.
type Client struct {
	cc     *grpc.ClientConn
	client RelayClient
}

// DialOptions tunes the connection behind a Client.
type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Dialer replaces the default network dialer when set.
	Dialer func(context.Context, string) (net.Conn, error)
}

// Dial creates a client connection and waits until it is ready or ctx ends.
func Dial(ctx context.Context, target string, opts DialOptions) (*Client, error) {
	if target == "" {
		return nil, errors.InvalidArgument(errors.PhaseTransport, "empty target")
	}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	if opts.Dialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(opts.Dialer))
	}

	cc, err := grpc.NewClient(dialTarget(target, opts), dialOpts...)
	if err != nil {
		return nil, mapRPC("transport_connect", err)
	}
	if err := waitReady(ctx, cc); err != nil {
		_ = cc.Close()
		return nil, mapRPC("transport_connect", err)
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewRelayClient(cc)}
}

// dialTarget routes a scheme-less target straight to a custom dialer.
// Without one, grpc resolves the target through DNS.
func dialTarget(target string, opts DialOptions) string {
	if opts.Dialer == nil || strings.Contains(target, "://") {
		return target
	}
	return "passthrough:///" + target
}

func waitReady(ctx context.Context, cc *grpc.ClientConn) error {
	cc.Connect()
	for {
		s := cc.GetState()
		if s == connectivity.Ready {
			return nil
		}
		if s == connectivity.Shutdown {
			return ErrClosed
		}
		if !cc.WaitForStateChange(ctx, s) {
			return ctx.Err()
		}
	}
}

// Close closes the connection. A nil Client is a no-op.
func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Publish stores data on the relay and returns its content id. The id the
// relay answers with must match the one computed locally.
func (c *Client) Publish(ctx context.Context, data []byte) (cid.Cid, error) {
	if len(data) == 0 {
		return cid.Undef, errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, ErrEmptyObject, "publish")
	}
	expected, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, errors.Internal(errors.PhaseTransport, "cid computation failed", err)
	}

	reply, err := c.client.Publish(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, mapRPC("transport_publish", err)
	}
	id, err := cidutil.Parse(reply.GetValue())
	if err != nil {
		return cid.Undef, errors.Wrap(errors.PhaseTransport, errors.KindMalformedInput, ErrInvalidID, reply.GetValue())
	}
	if !id.Equals(expected) {
		return cid.Undef, errors.Wrap(errors.PhaseTransport, errors.KindMalformedInput, ErrIDMismatch, "publish reply")
	}
	return id, nil
}

// Fetch returns the object stored under id, verified against the id.
func (c *Client) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, ErrInvalidID, "undefined id")
	}
	reply, err := c.client.Fetch(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, mapRPC("transport_fetch", err)
	}
	b := reply.GetValue()
	if !cidutil.Verify(id, b) {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindMalformedInput, ErrIDMismatch, "fetch reply")
	}
	return b, nil
}

// Has reports whether the relay stores an object under id.
func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, ErrInvalidID, "undefined id")
	}
	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, mapRPC("transport_has", err)
	}
	return reply.GetValue(), nil
}

// Session is a relay connection that retries transient failures with backoff.
// A session is the value stored behind a transport handle.
type Session struct {
	client  *Client
	target  string
	backoff BackoffConfig
	rng     *rand.Rand
	rngMu   sync.Mutex
	closed  atomic.Bool
}

// Connect dials target and returns a session.
func Connect(ctx context.Context, target string, opts DialOptions, backoff BackoffConfig) (*Session, error) {
	c, err := Dial(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	return NewSession(c, target, backoff), nil
}

// NewSession wraps an open client. The session owns c and closes it.
func NewSession(c *Client, target string, backoff BackoffConfig) *Session {
	return &Session{
		client:  c,
		target:  target,
		backoff: backoff,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Target returns the address the session was opened with.
func (s *Session) Target() string { return s.target }

// Publish is Client.Publish with retries.
func (s *Session) Publish(ctx context.Context, data []byte) (cid.Cid, error) {
	var id cid.Cid
	err := s.retry(ctx, "transport_publish", func(ctx context.Context) error {
		var err error
		id, err = s.client.Publish(ctx, data)
		return err
	})
	return id, err
}

// Fetch is Client.Fetch with retries.
func (s *Session) Fetch(ctx context.Context, id cid.Cid) ([]byte, error) {
	var b []byte
	err := s.retry(ctx, "transport_fetch", func(ctx context.Context) error {
		var err error
		b, err = s.client.Fetch(ctx, id)
		return err
	})
	return b, err
}

// Has is Client.Has with retries.
func (s *Session) Has(ctx context.Context, id cid.Cid) (bool, error) {
	var ok bool
	err := s.retry(ctx, "transport_has", func(ctx context.Context) error {
		var err error
		ok, err = s.client.Has(ctx, id)
		return err
	})
	return ok, err
}

func (s *Session) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.closed.Load() {
		return errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, ErrClosed, op)
	}
	attempts := s.backoff.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !retryable(err) || attempt >= attempts {
			return err
		}
		t := time.NewTimer(s.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return mapRPC(op, ctx.Err())
		case <-t.C:
		}
	}
}

func (s *Session) delay(attempt int) time.Duration {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return NextBackoffDelay(s.backoff, attempt, s.rng)
}

// Close closes the underlying connection. It is safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.client.Close()
}

// Drop implements resource.Dropper.
func (s *Session) Drop() {
	_ = s.Close()
}

package abi

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/buffer"
	"github.com/wippyai/citadel-abi/config"
	"github.com/wippyai/citadel-abi/contract"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/invoice"
	"github.com/wippyai/citadel-abi/keys"
	"github.com/wippyai/citadel-abi/metrics"
	"github.com/wippyai/citadel-abi/resource"
	"github.com/wippyai/citadel-abi/transport"
	"github.com/wippyai/citadel-abi/wallet"
)

// Boundary owns the handle registry and every object reachable through it.
type Boundary struct {
	cfg  config.Config
	reg  *resource.Registry
	bufs *buffer.Table
	log  *zap.Logger
	now  func() time.Time
	dial transport.DialOptions

	wallets   *resource.Typed[*wallet.Wallet]
	keys      *resource.Typed[*keys.Key]
	contracts *resource.Typed[*contract.Contract]
	invoices  *resource.Typed[*invoice.Invoice]
	sessions  *resource.Typed[*transport.Session]
	contexts  *resource.Typed[*Context]

	gauge  metrics.HandleGauge
	closed atomic.Bool
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithLogger sets the boundary logger. The default is the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Boundary) {
		b.log = l
	}
}

// WithDialer replaces the network dialer used by transport_connect.
func WithDialer(d func(context.Context, string) (net.Conn, error)) Option {
	return func(b *Boundary) {
		b.dial.Dialer = d
	}
}

// WithClock replaces the clock used for invoice expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Boundary) {
		b.now = now
	}
}

// New creates a boundary with its own registry.
func New(cfg config.Config, opts ...Option) (*Boundary, error) {
	return newSeeded(cfg, 0, opts...)
}

func newSeeded(cfg config.Config, first resource.Handle, opts ...Option) (*Boundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := resource.NewRegistry(
		resource.WithMaxHandles(cfg.MaxHandles),
		resource.WithFirstHandle(first),
	)
	b := &Boundary{
		cfg:       cfg,
		reg:       reg,
		bufs:      buffer.NewTable(reg),
		log:       Logger(),
		now:       time.Now,
		dial:      transport.DialOptions{MaxMsgBytes: cfg.Transport.MaxMsgBytes},
		wallets:   resource.NewTyped[*wallet.Wallet](reg, resource.FamilyWallet),
		keys:      resource.NewTyped[*keys.Key](reg, resource.FamilyKey),
		contracts: resource.NewTyped[*contract.Contract](reg, resource.FamilyContract),
		invoices:  resource.NewTyped[*invoice.Invoice](reg, resource.FamilyInvoice),
		sessions:  resource.NewTyped[*transport.Session](reg, resource.FamilySession),
		contexts:  resource.NewTyped[*Context](reg, resource.FamilyContext),
	}
	for _, opt := range opts {
		opt(b)
	}
	if cfg.Metrics.Enabled {
		metrics.Register()
		reg.Subscribe(b.gauge)
	}

	b.log.Debug("boundary initialized",
		zap.String("network", cfg.Network),
		zap.Int("max_handles", cfg.MaxHandles))
	return b, nil
}

// Config returns the configuration the boundary was created with.
func (b *Boundary) Config() config.Config {
	return b.cfg
}

// Registry exposes the handle registry.
func (b *Boundary) Registry() *resource.Registry {
	return b.reg
}

// Buffers exposes the buffer table.
func (b *Boundary) Buffers() *buffer.Table {
	return b.bufs
}

// Close drops every live handle, including contexts. Objects holding secrets
// are wiped and transport sessions are closed. Calling Close again is a no-op.
func (b *Boundary) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	n := b.reg.Len()
	err := b.reg.Close()
	if b.cfg.Metrics.Enabled {
		b.reg.Unsubscribe(b.gauge)
	}
	b.log.Debug("boundary closed", zap.Int("dropped", n))
	return err
}

func (b *Boundary) live() error {
	if b.closed.Load() {
		return errors.Internal(errors.PhaseDispatch, "boundary has been torn down", nil)
	}
	return nil
}

func (b *Boundary) backoff() transport.BackoffConfig {
	t := b.cfg.Transport
	return transport.BackoffConfig{
		InitialDelay: t.InitialDelay(),
		Multiplier:   t.Multiplier,
		MaxDelay:     t.MaxDelay(),
		Jitter:       t.Jitter,
		MaxAttempts:  t.MaxAttempts,
	}
}

// Process-wide boundary. lastHandle is the highest handle minted by any
// process-wide boundary already torn down.
var (
	defaultMu  sync.Mutex
	defaultB   *Boundary
	lastHandle resource.Handle
)

// Init creates the process-wide boundary. Calling Init while a boundary is
// live is an error. Init after Teardown starts a fresh registry whose
// handles continue past every handle minted before, so a handle kept from
// an earlier Init never names a new object.
func Init(cfg config.Config, opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultB != nil {
		return errors.InvalidArgument(errors.PhaseCreate, "boundary already initialized")
	}
	b, err := newSeeded(cfg, lastHandle+1, opts...)
	if err != nil {
		return err
	}
	defaultB = b
	return nil
}

// Default returns the process-wide boundary, or nil before Init.
func Default() *Boundary {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultB
}

// Teardown closes the process-wide boundary. No registry entry survives it.
func Teardown() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	b := defaultB
	if b == nil {
		return nil
	}
	defaultB = nil
	err := b.Close()
	lastHandle = max(lastHandle, b.reg.LastHandle())
	return err
}

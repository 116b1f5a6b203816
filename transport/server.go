package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/citadel-abi/internal/cidutil"
)

// Store is an in-memory content-addressed object store.
type Store struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Put stores data under its content id and returns the id string.
func (s *Store) Put(data []byte) (string, error) {
	id, err := cidutil.Sum(data)
	if err != nil {
		return "", err
	}
	key := id.String()
	s.mu.Lock()
	if _, ok := s.objects[key]; !ok {
		s.objects[key] = append([]byte(nil), data...)
	}
	s.mu.Unlock()
	return key, nil
}

func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	b, ok := s.objects[key]
	s.mu.RUnlock()
	return b, ok
}

func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Server exposes a Store over the relay gRPC service.
type Server struct {
	UnimplementedRelayServer
	Store  *Store
	Logger *zap.Logger
}

func (s *Server) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) Publish(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	b := in.GetValue()
	if len(b) == 0 {
		return nil, status.Error(codes.InvalidArgument, ErrEmptyObject.Error())
	}
	id, err := s.Store.Put(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	s.log().Debug("object published", zap.String("id", id), zap.Int("size", len(b)))
	return wrapperspb.String(id), nil
}

func (s *Server) Fetch(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, ErrInvalidID.Error())
	}
	b, ok := s.Store.Get(id.String())
	if !ok {
		return nil, status.Error(codes.NotFound, ErrNotFound.Error())
	}
	if !cidutil.Verify(id, b) {
		return nil, status.Error(codes.DataLoss, ErrIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, ErrInvalidID.Error())
	}
	return wrapperspb.Bool(s.Store.Has(id.String())), nil
}

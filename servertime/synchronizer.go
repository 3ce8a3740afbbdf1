// Package servertime tracks the clock skew between this process and the
// object-storage service so expiry-relative computations use server time.
package servertime

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-swift-client/transport"
	"github.com/pkg/errors"
)

// Synchronizer stores the signed offset (serverTime - localTime) measured
// at the last synchronization. Before the first Synchronize the offset is
// zero, so server time approximates local time; callers needing precise
// expiry windows must synchronize first.
type Synchronizer struct {
	mu           sync.RWMutex
	transport    transport.Transport
	offset       time.Duration
	synchronized bool
	nowFunc      func() time.Time
}

type Option func(*Synchronizer)

// WithNowFunc sets the local clock function (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.nowFunc = now
	}
}

func New(tr transport.Transport, options ...Option) *Synchronizer {
	s := &Synchronizer{
		transport: tr,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Synchronize fetches the remote server's current time and stores the
// offset against the local clock, overwriting any previous value.
func (s *Synchronizer) Synchronize(ctx context.Context) error {
	serverNow, err := s.transport.QueryServerTime(ctx)
	if err != nil {
		return errors.Wrap(err, "[Synchronizer.Synchronize] QueryServerTime")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = serverNow.Sub(s.nowFunc())
	s.synchronized = true
	return nil
}

// ServerTime returns local time adjusted by the stored offset.
func (s *Synchronizer) ServerTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFunc().Add(s.offset)
}

// ServerTimeAfter returns the server time d from now. Callers computing
// absolute expiry timestamps for signed URLs use this.
func (s *Synchronizer) ServerTimeAfter(d time.Duration) time.Time {
	return s.ServerTime().Add(d)
}

// Offset returns the stored (serverTime - localTime) duration.
func (s *Synchronizer) Offset() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// Synchronized reports whether Synchronize has completed at least once.
func (s *Synchronizer) Synchronized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synchronized
}

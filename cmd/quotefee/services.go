package main

import (
	"context"
	"sync"
)

// services stops background components in reverse start order, after the
// shared context is canceled so their loops can return.
type services struct {
	cancel context.CancelFunc
	mu     sync.Mutex
	stops  []func()
}

func newServices(cancel context.CancelFunc) *services {
	return &services{cancel: cancel}
}

func (s *services) add(stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = append(s.stops, stop)
}

func (s *services) close() {
	s.cancel()
	s.mu.Lock()
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()
	for i := len(stops) - 1; i >= 0; i-- {
		stops[i]()
	}
}

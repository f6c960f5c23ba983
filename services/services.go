// Package services holds the order, transaction and customer operations that
// sit between the HTTP handlers and the store. Every order mutation runs
// under a per-order lock so the load, derive, save cycle is serialized.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"commerce-sim/models"
	"commerce-sim/store"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrOrderState    = errors.New("invalid order state")
	ErrPayment       = errors.New("payment error")
	ErrPaymentFailed = errors.New("payment failed")
)

// EventPublisher receives order events after a mutation has been saved.
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent, priority uint8) error
	PublishDelayed(ctx context.Context, event models.OrderEvent, delay time.Duration) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.OrderEvent, uint8) error { return nil }

func (NopPublisher) PublishDelayed(context.Context, models.OrderEvent, time.Duration) error {
	return nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound converts a store miss into ErrNotFound and passes other errors
// through.
func notFound(err error, kind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s with ID '%s' not found", ErrNotFound, kind, id)
	}
	return err
}

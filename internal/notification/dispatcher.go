package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"taskboard-backend/internal/model"
)

const (
	defaultPushTimeout = 5 * time.Second
	defaultFanout      = 8
)

// ErrInvalidMessage is returned for empty or oversized notification text.
var ErrInvalidMessage = errors.New("invalid notification message")

// RecordCreator durably stores notifications.
type RecordCreator interface {
	CreateNotification(ctx context.Context, userID int64, message string) (*model.Notification, error)
}

// OfflineSender delivers a payload to a user who has no live channel. It is
// best effort and reports nothing back.
type OfflineSender interface {
	SendOffline(ctx context.Context, userID int64, payload []byte)
}

// Dispatcher persists notifications and then makes one best-effort attempt
// to push them to the user's live channel.
type Dispatcher struct {
	store       RecordCreator
	registry    *Registry
	offline     OfflineSender
	pushTimeout time.Duration
	fanout      int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPushTimeout bounds each push attempt.
func WithPushTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.pushTimeout = d
		}
	}
}

// WithFanout limits how many users NotifyMany delivers to concurrently.
func WithFanout(n int) Option {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.fanout = n
		}
	}
}

// WithOfflineSender sets the route used for users without a live channel.
func WithOfflineSender(s OfflineSender) Option {
	return func(disp *Dispatcher) {
		disp.offline = s
	}
}

// NewDispatcher creates a dispatcher writing to store and pushing through registry.
func NewDispatcher(store RecordCreator, registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		registry:    registry,
		pushTimeout: defaultPushTimeout,
		fanout:      defaultFanout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func validateMessage(message string) error {
	if message == "" {
		return fmt.Errorf("%w: empty", ErrInvalidMessage)
	}
	if n := utf8.RuneCountInString(message); n > model.MaxMessageLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidMessage, n, model.MaxMessageLength)
	}
	return nil
}

// Notify stores a notification for userID and pushes it if the user is
// connected. Only validation and persistence errors are returned; once the
// record is stored, delivery problems are handled here and Notify succeeds.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	n, err := d.store.CreateNotification(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(NewPush(n))
	if err != nil {
		log.Printf("Error encoding notification %d: %v", n.ID, err)
		return n, nil
	}

	ch, ok := d.registry.ChannelFor(userID)
	if !ok {
		d.sendOffline(ctx, userID, payload)
		return n, nil
	}

	if err := d.push(ctx, ch, payload); err != nil {
		if ctx.Err() != nil {
			// The caller gave up; that says nothing about the channel.
			log.Printf("Push of notification %d to user %d abandoned: %v", n.ID, userID, err)
			return n, nil
		}
		evicted := d.registry.Disconnect(userID, ch)
		log.Printf("Push of notification %d to user %d failed (evicted=%t): %v", n.ID, userID, evicted, err)
		d.sendOffline(ctx, userID, payload)
	}
	return n, nil
}

// push sends payload over ch and returns once it completes or the push
// timeout expires, whichever comes first.
func (d *Dispatcher) push(ctx context.Context, ch Channel, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.pushTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ch.Send(ctx, payload) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("push not acknowledged within %s: %w", d.pushTimeout, ctx.Err())
	}
}

func (d *Dispatcher) sendOffline(ctx context.Context, userID int64, payload []byte) {
	if d.offline == nil {
		return
	}
	d.offline.SendOffline(ctx, userID, payload)
}

// NotifyMany runs Notify for every distinct user concurrently. Each user is
// handled independently; the returned error joins the per-user failures.
func (d *Dispatcher) NotifyMany(ctx context.Context, userIDs []int64, message string) error {
	if err := validateMessage(message); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(d.fanout)

	seen := make(map[int64]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		userID := userID
		g.Go(func() error {
			if _, err := d.Notify(ctx, userID, message); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify user %d: %w", userID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

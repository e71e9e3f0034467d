// Package notification carries transient outcome messages from cart and
// checkout mutations to whatever front end is attached. Messages expire on
// their own; subscribers receive them as they are published.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoangnm/techshop/internal/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	ID        uuid.UUID
	Level     Level
	Message   string
	CreatedAt time.Time
}

type Relay struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextId int
	subs   map[int]chan Notification
	active []Notification
	now    func() time.Time
}

func NewRelay(ttl time.Duration) *Relay {
	return &Relay{
		ttl:  ttl,
		subs: map[int]chan Notification{},
		now:  time.Now,
	}
}

func (r *Relay) Publish(c context.Context, level Level, message string) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Relay Publish").
		Str(log.KeyNotifyLevel, string(level)).
		Logger()

	n := Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.expireLocked()
	r.active = append(r.active, n)
	subs := make([]chan Notification, 0, len(r.subs))
	for _, ch := range r.subs {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	logger.Info().Msg(message)
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
			// a slow subscriber must not stall a mutation
		}
	}
}

// Subscribe returns a channel of future notifications and a cancel func.
func (r *Relay) Subscribe() (<-chan Notification, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	ch := make(chan Notification, 16)
	r.subs[id] = ch
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// Active lists the notifications that have not yet auto-dismissed.
func (r *Relay) Active() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()
	out := make([]Notification, len(r.active))
	copy(out, r.active)
	return out
}

func (r *Relay) Dismiss(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.active {
		if n.ID == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return
		}
	}
}

func (r *Relay) expireLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	kept := r.active[:0]
	for _, n := range r.active {
		if n.CreatedAt.After(cutoff) {
			kept = append(kept, n)
		}
	}
	r.active = kept
}

// Package router implements the publish/subscribe message router (spec
// C5): role-keyed subscriber lists with per-subscriber fan-out concurrency
// and an append-before-fan-out chat history.
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deepnoodle-ai/biographer/internal/idgen"
	"github.com/deepnoodle-ai/biographer/slogger"
)

// Role identifies who authored a message.
type Role string

const (
	RoleInterviewer Role = "Interviewer"
	RoleUser        Role = "User"
)

// Type classifies a message for routing purposes: only Conversation and
// Skip participate in fan-out, Like is feedback-only (spec §4.5).
type Type string

const (
	TypeConversation Type = "conversation"
	TypeSkip         Type = "skip"
	TypeLike         Type = "like"
)

// Message is a single posted event.
type Message struct {
	ID        string
	Role      Role
	Type      Type
	Content   string
	Timestamp time.Time
}

// Subscriber receives messages delivered by the Router.
type Subscriber interface {
	OnMessage(ctx context.Context, msg *Message) error
}

// FeedbackRecorder records `like`-typed messages, which are logged but
// never fanned out to subscribers.
type FeedbackRecorder interface {
	RecordLike(ctx context.Context, msg *Message) error
}

// mailbox serializes delivery to a single subscriber: messages queue on a
// channel and a single goroutine drains it in order, so one slow or failing
// subscriber never reorders or blocks delivery to another (spec §4.5:
// "delivery order to a single subscriber respects post order", "delivery
// across subscribers is not synchronized").
type mailbox struct {
	sub   Subscriber
	queue chan *Message
}

func newMailbox(ctx context.Context, sub Subscriber) *mailbox {
	m := &mailbox{sub: sub, queue: make(chan *Message, 256)}
	go m.run(ctx)
	return m
}

func (m *mailbox) run(ctx context.Context) {
	for msg := range m.queue {
		deliver(ctx, m.sub, msg)
	}
}

// deliver invokes sub.OnMessage, logging (but never propagating) any error
// or panic so one failing subscriber never aborts another or the session
// (spec §4.5 failure model).
func deliver(ctx context.Context, sub Subscriber, msg *Message) {
	defer func() {
		if rec := recover(); rec != nil {
			slogger.Ctx(ctx).Error("router: subscriber panicked", "panic", rec, "message_id", msg.ID)
		}
	}()
	if err := sub.OnMessage(ctx, msg); err != nil {
		slogger.Ctx(ctx).Error("router: subscriber delivery failed", "error", err, "message_id", msg.ID)
	}
}

// Router fans out messages to role-keyed subscriber lists. Delivery to any
// one subscriber is strictly in post-order; delivery across subscribers is
// never synchronized (spec §4.5).
type Router struct {
	mu          sync.RWMutex
	subscribers map[Role][]*mailbox
	history     []*Message

	inProgress atomic.Bool
	feedback   FeedbackRecorder
}

// New creates a Router. feedback may be nil if `like` messages are not
// recorded in this deployment.
func New(feedback FeedbackRecorder) *Router {
	r := &Router{
		subscribers: make(map[Role][]*mailbox),
		feedback:    feedback,
	}
	r.inProgress.Store(true)
	return r
}

// Subscribe registers sub to receive messages posted under role, starting
// its dedicated delivery goroutine. Order of registration is the fan-out
// order used for logging, though fan-out itself is concurrent across
// subscribers.
func (r *Router) Subscribe(ctx context.Context, role Role, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[role] = append(r.subscribers[role], newMailbox(ctx, sub))
}

// SetInProgress flips the session-in-progress flag. When false, Post drops
// all deliveries silently (spec §4.5).
func (r *Router) SetInProgress(v bool) {
	r.inProgress.Store(v)
}

// InProgress reports the current session-in-progress flag.
func (r *Router) InProgress() bool {
	return r.inProgress.Load()
}

// History returns the full chat history in post order.
func (r *Router) History() []*Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Message, len(r.history))
	copy(out, r.history)
	return out
}

// Post appends content as a new message and fans it out. If the session is
// not in progress, the message is neither appended nor delivered.
func (r *Router) Post(ctx context.Context, role Role, msgType Type, content string) *Message {
	if !r.inProgress.Load() {
		return nil
	}

	msg := &Message{
		ID:        idgen.New(),
		Role:      role,
		Type:      msgType,
		Content:   content,
		Timestamp: time.Now(),
	}

	if msgType == TypeLike {
		if r.feedback != nil {
			if err := r.feedback.RecordLike(ctx, msg); err != nil {
				slogger.Ctx(ctx).Error("router: record like feedback failed", "error", err)
			}
		}
		return msg
	}

	r.mu.Lock()
	r.history = append(r.history, msg)
	boxes := append([]*mailbox(nil), r.subscribers[msg.Role]...)
	r.mu.Unlock()

	for _, box := range boxes {
		box.queue <- msg
	}
	return msg
}

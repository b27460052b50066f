// Package bus is a small in-process pub/sub bus with MQTT-style topics,
// retained messages and request/reply.
package bus

import (
	"context"
	"errors"
	"sync"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Wildcard tokens. "+" matches one level, "#" matches the rest (including
// nothing) and must be last.
const (
	Single = "+"
	Multi  = "#"
)

// Topic is a sequence of comparable tokens, usually strings or ints.
type Topic []any

// T builds a topic. It panics on a token that cannot be used as a map key.
func T(tokens ...any) Topic {
	for _, tok := range tokens {
		checkToken(tok)
	}
	return Topic(tokens)
}

func checkToken(tok any) {
	switch tok.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, bool:
		return
	}
	panic("bus: topic token is not comparable")
}

func (t Topic) Len() int { return len(t) }

// At returns token i, or nil when out of range.
func (t Topic) At(i int) any {
	if i < 0 || i >= len(t) {
		return nil
	}
	return t[i]
}

// Append returns a new topic; t is not modified.
func (t Topic) Append(tokens ...any) Topic {
	for _, tok := range tokens {
		checkToken(tok)
	}
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	return append(out, tokens...)
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the sender is waiting for a reply.
func (m *Message) CanReply() bool { return m != nil && len(m.ReplyTo) > 0 }

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// deliver never blocks; a full queue loses its oldest message.
func (s *Subscription) deliver(m *Message) {
	for {
		select {
		case s.ch <- m:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// -----------------------------------------------------------------------------
// Trie
// -----------------------------------------------------------------------------

type node struct {
	children map[any]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok any, create bool) *node {
	if c := n.children[tok]; c != nil || !create {
		return c
	}
	if n.children == nil {
		n.children = make(map[any]*node)
	}
	c := &node{}
	n.children[tok] = c
	return c
}

// collectSubs gathers subscriptions whose pattern matches topic[i:].
func (n *node) collectSubs(topic Topic, i int, out []*Subscription) []*Subscription {
	if h := n.children[Multi]; h != nil {
		out = append(out, h.subs...)
	}
	if i == len(topic) {
		return append(out, n.subs...)
	}
	if c := n.children[topic[i]]; c != nil {
		out = c.collectSubs(topic, i+1, out)
	}
	if topic[i] != Single {
		if c := n.children[Single]; c != nil {
			out = c.collectSubs(topic, i+1, out)
		}
	}
	return out
}

// collectRetained gathers retained messages whose topic matches pattern[i:].
func (n *node) collectRetained(pattern Topic, i int, out []*Message) []*Message {
	if i == len(pattern) {
		if n.retained != nil {
			out = append(out, n.retained)
		}
		return out
	}
	switch pattern[i] {
	case Multi:
		return n.allRetained(out)
	case Single:
		for _, c := range n.children {
			out = c.collectRetained(pattern, i+1, out)
		}
		return out
	}
	if c := n.children[pattern[i]]; c != nil {
		out = c.collectRetained(pattern, i+1, out)
	}
	return out
}

func (n *node) allRetained(out []*Message) []*Message {
	if n.retained != nil {
		out = append(out, n.retained)
	}
	for _, c := range n.children {
		out = c.allRetained(out)
	}
	return out
}

func (n *node) empty() bool {
	return len(n.subs) == 0 && len(n.children) == 0 && n.retained == nil
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu     sync.Mutex
	subs   *node
	kept   *node
	qLen   int
	nextID uint32
}

// NewBus creates a bus whose subscriptions queue up to queueLen messages.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{subs: &node{}, kept: &node{}, qLen: queueLen}
}

func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish delivers msg to every matching subscription. A retained message
// replaces the one stored on its topic; a retained nil payload clears it.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		b.retain(msg)
	}
	for _, s := range b.subs.collectSubs(msg.Topic, 0, nil) {
		s.deliver(msg)
	}
}

func (b *Bus) retain(msg *Message) {
	if msg.Payload != nil {
		n := b.kept
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		n.retained = msg
		return
	}
	path := []*node{b.kept}
	n := b.kept
	for _, tok := range msg.Topic {
		if n = n.child(tok, false); n == nil {
			return
		}
		path = append(path, n)
	}
	n.retained = nil
	prune(path, msg.Topic)
}

func prune(path []*node, topic Topic) {
	for i := len(topic) - 1; i >= 0; i-- {
		if !path[i+1].empty() {
			return
		}
		delete(path[i].children, topic[i])
	}
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.subs
	for _, tok := range sub.topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, sub)

	for _, m := range b.kept.collectRetained(sub.topic, 0, nil) {
		sub.deliver(m)
	}
}

func (b *Bus) unsubscribe(sub *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := []*node{b.subs}
	n := b.subs
	for _, tok := range sub.topic {
		if n = n.child(tok, false); n == nil {
			return false
		}
		path = append(path, n)
	}
	found := false
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			found = true
			break
		}
	}
	prune(path, sub.topic)
	return found
}

func (b *Bus) replyTopic() Topic {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.mu.Unlock()
	return Topic{"_reply", int(id)}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

// Connection groups the subscriptions of one client so they can be dropped
// together.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.subscribe(sub)
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	if c.bus.unsubscribe(sub) {
		close(sub.ch)
	}
}

// Disconnect drops every subscription of the connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		if c.bus.unsubscribe(s) {
			close(s.ch)
		}
	}
}

// Reply answers req on its ReplyTo topic. It is a no-op when req expects no
// reply.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if !req.CanReply() {
		return
	}
	c.Publish(c.NewMessage(req.ReplyTo, payload, retained))
}

// Request assigns req a private reply topic, subscribes to it and publishes
// req. The caller owns the returned subscription.
func (c *Connection) Request(req *Message) *Subscription {
	req.ReplyTo = c.bus.replyTopic()
	sub := c.Subscribe(req.ReplyTo)
	c.Publish(req)
	return sub
}

var ErrClosed = errors.New("bus: subscription closed")

// RequestWait publishes req and waits for the first reply or ctx.
func (c *Connection) RequestWait(ctx context.Context, req *Message) (*Message, error) {
	sub := c.Request(req)
	defer c.Unsubscribe(sub)
	select {
	case m, ok := <-sub.Channel():
		if !ok {
			return nil, ErrClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

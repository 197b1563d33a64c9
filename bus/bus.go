// Package bus implements the in-process message bus the services communicate
// over: topic-addressed publish/subscribe with retained messages, MQTT-style
// wildcards ("+" one level, "#" remainder) and optional reply topics.
package bus

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Topic is a sequence of path tokens, e.g. T("hal", "cap", "pot", "wiper", "w0").
type Topic []string

// T builds a topic from tokens.
func T(tokens ...string) Topic { return Topic(tokens) }

// Append returns a new topic with extra tokens added.
func (t Topic) Append(tokens ...string) Topic {
	out := make(Topic, 0, len(t)+len(tokens))
	out = append(out, t...)
	out = append(out, tokens...)
	return out
}

func (t Topic) Len() int { return len(t) }

// At returns the token at index i, or "" when out of range.
func (t Topic) At(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return t[i]
}

// String renders the topic slash-joined, for logs only.
func (t Topic) String() string {
	s := ""
	for i, tok := range t {
		if i > 0 {
			s += "/"
		}
		s += tok
	}
	return s
}

const (
	WildOne  = "+" // matches exactly one token
	WildRest = "#" // matches any remainder, only valid as last token
)

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// CanReply reports whether the publisher asked for a reply.
func (m *Message) CanReply() bool { return len(m.ReplyTo) > 0 }

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection

	// Guarded by the bus mutex. Once set, ch is closed and the
	// subscription is out of the trie, so no publisher can reach it.
	closed bool
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// Trie node. Subscriptions live at the node their pattern ends on; retained
// messages live at literal publish paths.
type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

type Bus struct {
	mu    sync.RWMutex
	root  *node
	qLen  int
	reply uint32 // reply topic sequence
}

// NewBus creates a bus; queueLen is the per-subscription buffer length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	n := b.root
	for _, tok := range sub.topic {
		if n.children == nil {
			n.children = map[string]*node{}
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	// Deliver any retained messages matching the pattern. Delivery stays
	// inside the critical section so an unsubscribe cannot close ch
	// between the trie walk and the send.
	var pending []*Message
	collectRetained(b.root, sub.topic, &pending)
	for _, m := range pending {
		deliver(sub, m)
	}
	b.mu.Unlock()
}

// collectRetained walks the literal trie against a (possibly wildcarded)
// pattern and gathers retained messages.
func collectRetained(n *node, pattern Topic, out *[]*Message) {
	if len(pattern) == 0 {
		if n.retained != nil {
			*out = append(*out, n.retained)
		}
		return
	}
	tok := pattern[0]
	if tok == WildRest {
		collectAllRetained(n, out)
		return
	}
	for key, child := range n.children {
		if tok == WildOne || tok == key {
			collectRetained(child, pattern[1:], out)
		}
	}
}

func collectAllRetained(n *node, out *[]*Message) {
	if n.retained != nil {
		*out = append(*out, n.retained)
	}
	for _, child := range n.children {
		collectAllRetained(child, out)
	}
}

// Publish delivers msg to every matching subscription and updates retained
// state at the literal topic path. Delivery happens under the bus mutex:
// deliver never blocks, and it means a subscription still in the trie
// cannot have been closed by a concurrent Unsubscribe.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []*Subscription
	match(b.root, msg.Topic, &targets)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			if n.children == nil {
				n.children = map[string]*node{}
			}
			child, ok := n.children[tok]
			if !ok {
				child = &node{}
				n.children[tok] = child
			}
			n = child
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}

	for _, sub := range targets {
		deliver(sub, msg)
	}
}

// match walks subscription patterns in the trie against a literal topic.
func match(n *node, topic Topic, out *[]*Subscription) {
	if rest, ok := n.children[WildRest]; ok {
		*out = append(*out, rest.subs...)
	}
	if len(topic) == 0 {
		*out = append(*out, n.subs...)
		return
	}
	if child, ok := n.children[topic[0]]; ok {
		match(child, topic[1:], out)
	}
	if child, ok := n.children[WildOne]; ok {
		match(child, topic[1:], out)
	}
}

// deliver enqueues without blocking. Callers hold the bus mutex.
func deliver(sub *Subscription, msg *Message) {
	if sub.closed {
		return
	}
	select {
	case sub.ch <- msg:
	default:
		// Queue full: drop the oldest message in favour of the newest.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// unsubscribe removes the subscription and closes its channel in one
// critical section, so no publisher can send on the closed channel.
// Safe to call more than once.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)

	n := b.root
	var stack []*node
	for _, tok := range sub.topic {
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	// Prune empty nodes.
	for i := len(sub.topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := sub.topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Request publishes msg with a fresh reply topic and returns a subscription
// on it. The caller owns the subscription and must unsubscribe.
func (c *Connection) Request(msg *Message) *Subscription {
	seq := atomic.AddUint32(&c.bus.reply, 1)
	msg.ReplyTo = T("reply", c.id, strconv.FormatUint(uint64(seq), 10))
	sub := c.Subscribe(msg.ReplyTo)
	c.bus.Publish(msg)
	return sub
}

// Reply publishes payload on the message's reply topic, if any.
func (c *Connection) Reply(to *Message, payload any, retained bool) {
	if !to.CanReply() {
		return
	}
	c.bus.Publish(&Message{Topic: to.ReplyTo, Payload: payload, Retained: retained})
}

func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

// Disconnect closes all subscriptions owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, sub := range subs {
		c.bus.unsubscribe(sub)
	}
}

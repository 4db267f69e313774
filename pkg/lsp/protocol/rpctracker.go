package protocol

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
)

// RPCMessage is one request or response seen by the server.
type RPCMessage struct {
	Method   string
	Request  *jrpc2.Request
	Response *jrpc2.Response
	Time     time.Time
}

func (m RPCMessage) IsResponse() bool {
	return m.Response != nil
}

// RPCTracker records traffic so tests can wait for the server to have
// handled a notification before asserting on its effects.
type RPCTracker struct {
	mu sync.RWMutex

	messages     []RPCMessage
	subs         map[chan<- RPCMessage]struct{}
	knownMethods map[string]string
}

var _ jrpc2.RPCLogger = (*RPCTracker)(nil)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{
		subs:         make(map[chan<- RPCMessage]struct{}),
		knownMethods: make(map[string]string),
	}
}

func (t *RPCTracker) LogRequest(ctx context.Context, req *jrpc2.Request) {
	if !req.IsNotification() {
		t.mu.Lock()
		t.knownMethods[req.ID()] = req.Method()
		t.mu.Unlock()
	}
	t.Track(RPCMessage{Method: req.Method(), Request: req})
}

func (t *RPCTracker) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	t.mu.RLock()
	method := t.knownMethods[resp.ID()]
	t.mu.RUnlock()
	t.Track(RPCMessage{Method: method, Response: resp})
}

// Track stores msg and offers it to subscribers without blocking.
func (t *RPCTracker) Track(msg RPCMessage) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	msg.Time = time.Now()
	t.messages = append(t.messages, msg)

	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (t *RPCTracker) subscribe(bufSize int) (<-chan RPCMessage, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan RPCMessage, bufSize)
	t.subs[ch] = struct{}{}

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, ch)
	}
}

func (t *RPCTracker) Messages() []RPCMessage {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

func (t *RPCTracker) MessagesSinceLike(since time.Time, predicate func(RPCMessage) bool) []RPCMessage {
	return slices.DeleteFunc(t.Messages(), func(msg RPCMessage) bool {
		return msg.Time.Before(since) || !predicate(msg)
	})
}

// WaitForMessages blocks until count messages matching predicate have been
// tracked since the given time, or timeout passes.
func (t *RPCTracker) WaitForMessages(since time.Time, count int, timeout time.Duration, predicate func(RPCMessage) bool) ([]RPCMessage, bool) {
	ch, unsub := t.subscribe(64)
	defer unsub()

	result := t.MessagesSinceLike(since, predicate)
	if len(result) >= count {
		return result, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if !msg.Time.Before(since) && predicate(msg) && !containsMessage(result, msg) {
				result = append(result, msg)
			}
			if len(result) >= count {
				return result, true
			}
		case <-timer.C:
			return result, false
		}
	}
}

func containsMessage(msgs []RPCMessage, msg RPCMessage) bool {
	return slices.ContainsFunc(msgs, func(m RPCMessage) bool {
		return m.Time.Equal(msg.Time) && m.Request == msg.Request && m.Response == msg.Response
	})
}

// ResponseTo matches the response for method.
func ResponseTo(method string) func(RPCMessage) bool {
	return func(msg RPCMessage) bool {
		return msg.IsResponse() && msg.Method == method
	}
}

// RequestFor matches requests and notifications for method.
func RequestFor(method string) func(RPCMessage) bool {
	return func(msg RPCMessage) bool {
		return !msg.IsResponse() && msg.Method == method
	}
}

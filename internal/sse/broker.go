// Package sse implements a per-user Server-Sent Events broker that tells a
// user's open clients when their documents change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event sent to one user's clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Document event kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

type userEvent struct {
	username string
	event    Event
}

type documentEventReq struct {
	username   string
	kind       string
	documentID int64
}

type subscription struct {
	username string
	ch       chan []byte
}

// Broker manages SSE client connections grouped by username.
//
// A single internal event loop owns the client map and the per-user list
// throttle. Public methods talk to it over channels.
type Broker struct {
	listMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan subscription
	publishCh     chan userEvent
	documentCh    chan documentEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. listThrottle bounds how often a user receives
// "documents.changed".
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = 2 * time.Second
	}

	b := &Broker{
		listMin:       listThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan subscription),
		publishCh:     make(chan userEvent, 256),
		documentCh:    make(chan documentEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[string]map[chan []byte]struct{})
	lastList := make(map[string]time.Time)

	send := func(username string, event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients[username] {
			select {
			case ch <- raw:
			default:
				// Client buffer full; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for _, set := range clients {
				for ch := range set {
					close(ch)
				}
			}
			return

		case sub := <-b.subscribeCh:
			set, ok := clients[sub.username]
			if !ok {
				set = make(map[chan []byte]struct{})
				clients[sub.username] = set
			}
			set[sub.ch] = struct{}{}

		case sub := <-b.unsubscribeCh:
			set := clients[sub.username]
			if _, ok := set[sub.ch]; ok {
				delete(set, sub.ch)
				close(sub.ch)
				if len(set) == 0 {
					delete(clients, sub.username)
					delete(lastList, sub.username)
				}
			}

		case ev := <-b.publishCh:
			send(ev.username, ev.event)

		case req := <-b.documentCh:
			if _, ok := clients[req.username]; !ok {
				continue
			}
			send(req.username, Event{
				Type: "document." + req.kind,
				Data: map[string]int64{"documentId": req.documentID},
			})

			now := time.Now()
			if now.Sub(lastList[req.username]) >= b.listMin {
				lastList[req.username] = now
				send(req.username, Event{Type: "documents.changed", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			n := 0
			for _, set := range clients {
				n += len(set)
			}
			resp <- n
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client of username and returns its channel.
func (b *Broker) Subscribe(username string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{username: username, ch: ch}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(username string, ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- subscription{username: username, ch: ch}:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients across all users.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends event to every client of username.
func (b *Broker) Publish(username string, event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- userEvent{username: username, event: event}:
	case <-b.stopped:
	}
}

// PublishDocumentEvent sends "document.<kind>" to username's clients followed
// by a throttled "documents.changed".
func (b *Broker) PublishDocumentEvent(username, kind string, documentID int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.documentCh <- documentEventReq{username: username, kind: kind, documentID: documentID}:
	case <-b.stopped:
	}
}

// Handler returns the SSE endpoint for the user named by usernameOf(r).
func (b *Broker) Handler(usernameOf func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		username := usernameOf(r)
		ch := b.Subscribe(username)
		defer b.Unsubscribe(username, ch)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_, _ = w.Write(msg)
				flusher.Flush()
			}
		}
	}
}

// Package notify carries transient user-facing notifications (toasts) from
// workflows to whatever surface displays them.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Level distinguishes success and failure toasts.
type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

// Event is one notification.
type Event struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives workflow outcomes.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Stream fan-outs events to all active subscribers.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

func (s *Stream) publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

func (s *Stream) Success(message string) {
	s.publish(Event{Level: LevelSuccess, Message: message, Timestamp: time.Now().UTC()})
}

func (s *Stream) Failure(message string) {
	s.publish(Event{Level: LevelFailure, Message: message, Timestamp: time.Now().UTC()})
}

// Writer prints notifications to an io.Writer; the CLI points it at stderr.
type Writer struct {
	Out io.Writer
}

func (w Writer) Success(message string) {
	fmt.Fprintf(w.Out, "✔ %s\n", message)
}

func (w Writer) Failure(message string) {
	fmt.Fprintf(w.Out, "✘ %s\n", message)
}

// Discard drops all notifications. Used in tests.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Failure(string) {}

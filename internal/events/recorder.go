package events

import (
	"context"
	"sync"
)

// Recorded is one captured emission.
type Recorded struct {
	Name    string
	Payload any
}

// Recorder captures emitted events. Install it with SetCustomEmitter(r.Record).
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Record(_ context.Context, name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Name: name, Payload: payload})
}

// Named returns the payloads recorded under name, oldest first.
func (r *Recorder) Named(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e.Payload)
		}
	}
	return out
}

package kb

import (
	"fmt"
	"sort"
	"sync"
)

// Kind names one of the catalog option lists.
type Kind string

const (
	KindSatellite  Kind = "Satellite"
	KindInstrument Kind = "Instrument"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	// EventOptionsLoaded fires after an option list has been replaced.
	EventOptionsLoaded EventType = iota
	// EventLoadFailed fires when a list could not be fetched. The list is left empty.
	EventLoadFailed
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type    EventType
	Kind    Kind
	Options []Option
	Err     error
}

// Option is one selectable catalog record.
type Option struct {
	ID   string
	Name string
}

// Label is the text shown for the option in a select.
func (o Option) Label() string {
	if o.Name == "" {
		return o.ID
	}
	return o.Name
}

// KnowledgeBase is an in-memory, thread-safe store for the satellite and
// instrument options offered by the form.
type KnowledgeBase struct {
	mu sync.RWMutex

	options map[Kind][]Option
	byID    map[Kind]map[string]Option

	subs map[int]func(Event)
	next int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		options: make(map[Kind][]Option),
		byID:    make(map[Kind]map[string]Option),
		subs:    make(map[int]func(Event)),
	}
}

// SetOptions replaces the option list of kind and notifies subscribers.
// Duplicate or empty identifiers are rejected.
func (kb *KnowledgeBase) SetOptions(kind Kind, opts []Option) error {
	index := make(map[string]Option, len(opts))
	for _, o := range opts {
		if o.ID == "" {
			return fmt.Errorf("%s option %q has no ID", kind, o.Name)
		}
		if _, exists := index[o.ID]; exists {
			return fmt.Errorf("%s option with ID %q already exists", kind, o.ID)
		}
		index[o.ID] = o
	}

	kb.mu.Lock()
	kb.options[kind] = append([]Option(nil), opts...)
	kb.byID[kind] = index
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	kb.notify(subs, Event{Type: EventOptionsLoaded, Kind: kind, Options: append([]Option(nil), opts...)})
	return nil
}

// MarkFailed clears the option list of kind and reports err to subscribers.
func (kb *KnowledgeBase) MarkFailed(kind Kind, err error) {
	kb.mu.Lock()
	delete(kb.options, kind)
	delete(kb.byID, kind)
	subs := kb.snapshotSubsLocked()
	kb.mu.Unlock()

	kb.notify(subs, Event{Type: EventLoadFailed, Kind: kind, Err: err})
}

// Options returns a snapshot of the option list of kind, in load order.
func (kb *KnowledgeBase) Options(kind Kind) []Option {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]Option(nil), kb.options[kind]...)
}

// Get returns the option with the given ID.
func (kb *KnowledgeBase) Get(kind Kind, id string) (Option, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	o, ok := kb.byID[kind][id]
	return o, ok
}

// Has reports whether id is a known option of kind.
func (kb *KnowledgeBase) Has(kind Kind, id string) bool {
	_, ok := kb.Get(kind, id)
	return ok
}

// Sorted returns the option list of kind ordered by label.
func (kb *KnowledgeBase) Sorted(kind Kind) []Option {
	opts := kb.Options(kind)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Label() < opts[j].Label() })
	return opts
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.next
	kb.next++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

func (kb *KnowledgeBase) snapshotSubsLocked() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, kb.subs[id])
	}
	return subs
}

func (kb *KnowledgeBase) notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}

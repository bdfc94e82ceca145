// Package eventbus implements the namespaced, cached pub/sub every
// machine publishes through: one namespace per machine identifier, one
// cache policy per event name, built as a thin policy layer over the
// teacher's bus.Bus topic trie (bus/bus.go). Events are published
// non-retained; every policy, CacheOne included, is kept in this
// package's own per-name cache and flushed to a new subscriber by
// Subscribe.
package eventbus

import (
	"time"

	"machinectl/bus"
)

// Policy names how a namespace remembers events under one event name.
type Policy int

const (
	// CacheOne keeps only the latest event.
	CacheOne Policy = iota
	// CacheN keeps the last N events.
	CacheN
	// CacheDuration keeps up to one event per MinGap, evicting entries
	// older than Window.
	CacheDuration
	// CacheFirstAndLast keeps the first event recorded under the name
	// plus the latest. The first slot is filled once and is not reset
	// when a subscriber arrives.
	CacheFirstAndLast
)

// PolicyConfig configures one event name's cache behaviour.
type PolicyConfig struct {
	Policy  Policy
	N       int           // CacheN
	Window  time.Duration // CacheDuration
	MinGap  time.Duration // CacheDuration
}

// Event is one published value: a stable name, a timestamp, and an
// application-defined payload serialized by the transport layer.
type Event struct {
	Name string
	TsMs int64
	Data any
}

type cacheEntry struct {
	cfg      PolicyConfig
	events   []Event
	lastKept time.Time
	hasFirst bool
}

func (c *cacheEntry) record(e Event, now time.Time) {
	switch c.cfg.Policy {
	case CacheOne:
		c.events = []Event{e}
	case CacheN:
		n := c.cfg.N
		if n <= 0 {
			n = 1
		}
		c.events = append(c.events, e)
		if len(c.events) > n {
			c.events = c.events[len(c.events)-n:]
		}
	case CacheDuration:
		if !c.lastKept.IsZero() && now.Sub(c.lastKept) < c.cfg.MinGap {
			return
		}
		c.lastKept = now
		c.events = append(c.events, e)
		c.evictOlderThan(now)
	case CacheFirstAndLast:
		if !c.hasFirst {
			c.events = []Event{e}
			c.hasFirst = true
			return
		}
		if len(c.events) == 1 {
			c.events = append(c.events, e)
		} else {
			c.events[len(c.events)-1] = e
		}
	}
}

func (c *cacheEntry) evictOlderThan(now time.Time) {
	if c.cfg.Window <= 0 {
		return
	}
	cutoff := now.Add(-c.cfg.Window)
	kept := c.events[:0]
	for _, e := range c.events {
		if time.UnixMilli(e.TsMs).After(cutoff) {
			kept = append(kept, e)
		}
	}
	c.events = kept
}

// Namespace is one machine's event surface: a set of named event caches
// plus a connection onto the shared bus for delivery.
type Namespace struct {
	id   string
	bus  *bus.Connection
	raw  *bus.Bus
	caches map[string]*cacheEntry
}

// Bus owns the namespaces. One Bus per process, constructed at startup.
type Bus struct {
	raw        *bus.Bus
	namespaces map[string]*Namespace
}

func NewBus(queueLen int) *Bus {
	return &Bus{raw: bus.NewBus(queueLen), namespaces: make(map[string]*Namespace)}
}

// Namespace returns (creating if necessary) the namespace for id, e.g. a
// machine's MachineIdentificationUnique rendered as a string key.
func (b *Bus) Namespace(id string) *Namespace {
	if ns, ok := b.namespaces[id]; ok {
		return ns
	}
	ns := &Namespace{id: id, bus: b.raw.NewConnection(id), raw: b.raw, caches: make(map[string]*cacheEntry)}
	b.namespaces[id] = ns
	return ns
}

// Configure sets the cache policy for one event name; events emitted
// before Configure use the default CacheOne policy.
func (ns *Namespace) Configure(name string, cfg PolicyConfig) {
	ns.caches[name] = &cacheEntry{cfg: cfg}
}

func (ns *Namespace) cacheFor(name string) *cacheEntry {
	c, ok := ns.caches[name]
	if !ok {
		c = &cacheEntry{cfg: PolicyConfig{Policy: CacheOne}}
		ns.caches[name] = c
	}
	return c
}

// Emit publishes an event under name, applying its configured cache
// policy, and delivers it non-blockingly to current subscribers. Slow
// subscribers drop the oldest queued message rather than block the
// caller (the cycle thread).
func (ns *Namespace) Emit(name string, data any, now time.Time) {
	e := Event{Name: name, TsMs: now.UnixMilli(), Data: data}
	ns.cacheFor(name).record(e, now)
	topic := bus.T(ns.id, name)
	msg := ns.raw.NewMessage(topic, e, false)
	ns.raw.Publish(msg)
}

// Latest returns the most recently emitted event under name without
// subscribing, for a machine that pulls another machine's current value
// by identifier rather than holding an open subscription (e.g. the
// buffer machine reading the winder's puller speed every cycle).
func (ns *Namespace) Latest(name string) (Event, bool) {
	c, ok := ns.caches[name]
	if !ok || len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[len(c.events)-1], true
}

// Subscribe returns a channel delivering future events for name, having
// first flushed this name's cached events, in insertion order, to this
// subscriber alone.
func (ns *Namespace) Subscribe(name string) *bus.Subscription {
	sub := ns.bus.Subscribe(bus.T(ns.id, name))
	c := ns.cacheFor(name)
	for _, e := range c.events {
		ns.raw.DeliverTo(sub, ns.raw.NewMessage(bus.T(ns.id, name), e, false))
	}
	return sub
}

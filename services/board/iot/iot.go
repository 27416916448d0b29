// Package iot keeps the descriptors of the devices the assistant may
// control and publishes them on the bus.
package iot

import (
	"sync"

	"boardcode-go/bus"
	"boardcode-go/errcode"
	"boardcode-go/types"
)

// Builder produces a thing's descriptor.
type Builder func() types.ThingDescriptor

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

func RegisterBuilder(name string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[name]; exists {
		panic("iot: duplicate thing builder: " + name)
	}
	builders[name] = b
}

// CreateThing builds the descriptor registered under name.
func CreateThing(name string) (types.ThingDescriptor, error) {
	regMu.RLock()
	b, ok := builders[name]
	regMu.RUnlock()
	if !ok {
		return types.ThingDescriptor{}, &errcode.E{C: errcode.UnknownThing, Op: "create_thing", Msg: name}
	}
	d := b()
	d.Name = name
	return d, nil
}

// DescriptorTopic is where a thing's descriptor is retained.
func DescriptorTopic(name string) bus.Topic {
	return bus.T("iot", "thing", name, "descriptor")
}

// Registry holds the things added on this board.
type Registry struct {
	conn *bus.Connection

	mu     sync.Mutex
	things map[string]types.ThingDescriptor
	order  []string
}

// NewRegistry publishes through conn; conn may be nil.
func NewRegistry(conn *bus.Connection) *Registry {
	return &Registry{conn: conn, things: map[string]types.ThingDescriptor{}}
}

func (r *Registry) AddThing(d types.ThingDescriptor) error {
	if d.Name == "" {
		return errcode.InvalidParams
	}
	r.mu.Lock()
	if _, dup := r.things[d.Name]; dup {
		r.mu.Unlock()
		return &errcode.E{C: errcode.DuplicateThing, Op: "add_thing", Msg: d.Name}
	}
	r.things[d.Name] = d
	r.order = append(r.order, d.Name)
	r.mu.Unlock()

	if r.conn != nil {
		r.conn.Publish(r.conn.NewMessage(DescriptorTopic(d.Name), d, true))
	}
	return nil
}

// Things lists descriptors in the order they were added.
func (r *Registry) Things() []types.ThingDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ThingDescriptor, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.things[n])
	}
	return out
}

func (r *Registry) Get(name string) (types.ThingDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.things[name]
	return d, ok
}

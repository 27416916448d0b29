// Package app is the board's view of the voice application: the three
// calls buttons make, carried over the bus, and a minimal state service
// used on hosts.
package app

import (
	"context"
	"sync"

	"boardcode-go/bus"
	"boardcode-go/types"
	"boardcode-go/x/logx"
)

// Application is what button handlers drive.
type Application interface {
	ToggleChatState()
	StartListening()
	StopListening()
}

const (
	VerbToggle = "toggle_chat"
	VerbStart  = "start_listening"
	VerbStop   = "stop_listening"
)

func ControlTopic(verb string) bus.Topic { return bus.T("app", "control", verb) }

// StateTopic carries the retained types.DeviceState.
var StateTopic = bus.T("app", "state")

// BusClient forwards calls as fire-and-forget bus messages. Publishing
// never blocks, so it is safe from a button's sampling goroutine.
type BusClient struct {
	conn *bus.Connection
}

var _ Application = (*BusClient)(nil)

func NewBusClient(conn *bus.Connection) *BusClient { return &BusClient{conn: conn} }

func (c *BusClient) ToggleChatState() { c.send(VerbToggle) }
func (c *BusClient) StartListening()  { c.send(VerbStart) }
func (c *BusClient) StopListening()   { c.send(VerbStop) }

func (c *BusClient) send(verb string) {
	c.conn.Publish(c.conn.NewMessage(ControlTopic(verb), nil, false))
}

// Service tracks the chat state machine and publishes it retained.
type Service struct {
	conn *bus.Connection

	mu    sync.Mutex
	state types.DeviceState
}

func NewService(conn *bus.Connection) *Service {
	return &Service{conn: conn, state: types.StateIdle}
}

func (s *Service) State() types.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState forces a state, e.g. when playback starts.
func (s *Service) SetState(st types.DeviceState) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if changed {
		logx.I("app", "state", string(st))
		s.conn.Publish(s.conn.NewMessage(StateTopic, st, true))
	}
}

// Handle applies one control verb.
func (s *Service) Handle(verb string) {
	switch cur := s.State(); verb {
	case VerbToggle:
		switch cur {
		case types.StateIdle, types.StateUnknown:
			s.SetState(types.StateConnecting)
			s.SetState(types.StateListening)
		case types.StateListening, types.StateSpeaking:
			s.SetState(types.StateIdle)
		}
	case VerbStart:
		if cur == types.StateIdle || cur == types.StateSpeaking {
			s.SetState(types.StateListening)
		}
	case VerbStop:
		if cur == types.StateListening {
			s.SetState(types.StateIdle)
		}
	default:
		logx.W("app", "unknown verb", verb)
	}
}

// Start subscribes to the control verbs, publishes the initial state and
// serves verbs in the background until ctx ends.
func (s *Service) Start(ctx context.Context) {
	sub := s.conn.Subscribe(bus.T("app", "control", "+"))
	s.conn.Publish(s.conn.NewMessage(StateTopic, s.State(), true))
	go s.serve(ctx, sub)
}

// serve owns s.conn from here on and disconnects it on exit.
func (s *Service) serve(ctx context.Context, sub *bus.Subscription) {
	defer s.conn.Disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			if verb, ok := m.Topic.At(2).(string); ok {
				s.Handle(verb)
			}
		}
	}
}

package service

import (
	"sync"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
)

// StateHandler is called with the new state on every SetState.
//
// Handlers run synchronously on the goroutine calling SetState and must
// not call SetState themselves.
type StateHandler func(domain.State)

// Subscription is a registered state listener.
type Subscription struct {
	portal  *Portal
	id      uint64
	handler StateHandler
	once    sync.Once
}

// Unsubscribe removes the listener. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		p := s.portal
		p.stateMu.Lock()
		defer p.stateMu.Unlock()
		for i, l := range p.listeners {
			if l.id == s.id {
				p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
				return
			}
		}
	})
}

// State returns the current session state.
func (p *Portal) State() domain.State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// OnStateChange registers a listener. Listeners are invoked in
// registration order.
func (p *Portal) OnStateChange(handler StateHandler) *Subscription {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.nextSubID++
	sub := &Subscription{portal: p, id: p.nextSubID, handler: handler}
	p.listeners = append(p.listeners, sub)
	return sub
}

// SetState updates the state and notifies every listener once, even when
// the state did not change.
func (p *Portal) SetState(s domain.State) {
	p.stateMu.Lock()
	p.state = s
	listeners := make([]*Subscription, len(p.listeners))
	copy(listeners, p.listeners)
	p.stateMu.Unlock()

	p.metrics.ObserveState(s.String())
	p.logger.Debug("session state set", "state", s.String(), "listeners", len(listeners))

	for _, l := range listeners {
		l.handler(s)
	}
}

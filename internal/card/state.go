package card

import (
	"fmt"
	"time"

	"github.com/frahmantamala/gym-management/internal"
)

type EventKind string

const (
	EventActivate EventKind = "activate"
	EventConsume  EventKind = "consume"
	EventFreeze   EventKind = "freeze"
	EventUnfreeze EventKind = "unfreeze"
	EventRefund   EventKind = "refund"
	EventExpire   EventKind = "expire"
)

// Event asks the machine to apply Kind at instant At.
type Event struct {
	Kind EventKind
	At   time.Time
}

type EffectKind string

const (
	EffectActivated       EffectKind = "activated"
	EffectSessionConsumed EffectKind = "session_consumed"
	EffectExpired         EffectKind = "expired"
	EffectFrozen          EffectKind = "frozen"
	EffectUnfrozen        EffectKind = "unfrozen"
	EffectRefunded        EffectKind = "refunded"
)

// Effect is an observable consequence of a transition, published once the
// new state has been committed.
type Effect struct {
	Kind EffectKind
	At   time.Time
}

// Policy holds the lifecycle choices that vary per deployment.
type Policy struct {
	// FreezeExtendsExpiry pushes the expiry date out by the time a card spent
	// frozen.
	FreezeExtendsExpiry bool
}

func DefaultPolicy() Policy {
	return Policy{FreezeExtendsExpiry: true}
}

// Machine is the membership card transition table. Transition is pure: it
// never touches storage and never mutates its input.
type Machine struct {
	policy Policy
}

func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy}
}

func (m *Machine) Policy() Policy {
	return m.policy
}

// Transition applies ev to c and returns the next state with its effects. On
// error the input card is returned unchanged.
func (m *Machine) Transition(c Card, ev Event) (Card, []Effect, error) {
	var (
		next    Card
		effects []Effect
		err     error
	)

	switch ev.Kind {
	case EventActivate:
		next, effects, err = m.activate(c, ev.At)
	case EventConsume:
		next, effects, err = m.consume(c, ev.At)
	case EventFreeze:
		next, effects, err = m.freeze(c, ev.At)
	case EventUnfreeze:
		next, effects, err = m.unfreeze(c, ev.At)
	case EventRefund:
		next, effects, err = m.refund(c, ev.At)
	case EventExpire:
		next, effects, err = m.expire(c, ev.At)
	default:
		err = invalidTransition(c, ev.Kind)
	}

	if err != nil {
		return c, nil, err
	}
	return next, effects, nil
}

func (m *Machine) activate(c Card, at time.Time) (Card, []Effect, error) {
	if c.Status != StatusInactive || c.ActivationDate != nil {
		return c, nil, invalidTransition(c, EventActivate)
	}
	if c.IssueDate.After(at) {
		return c, nil, internal.ErrInvalidCardTransition.WithMessage("card cannot be activated before its issue date")
	}

	activated := at
	c.ActivationDate = &activated
	if c.ValidityDays != nil && c.ExpiryDate == nil {
		expiry := at.AddDate(0, 0, *c.ValidityDays)
		c.ExpiryDate = &expiry
	}
	c.Status = StatusActive
	return c, []Effect{{Kind: EffectActivated, At: at}}, nil
}

// consume decrements a times card. Exhausted cards report CardExhausted even
// after the automatic move to expired.
func (m *Machine) consume(c Card, at time.Time) (Card, []Effect, error) {
	if c.BillingType != BillingTimes {
		return c, nil, internal.ErrInvalidCardTransition.WithMessage(
			fmt.Sprintf("%s cards do not track sessions", c.BillingType))
	}

	switch c.Status {
	case StatusActive:
	case StatusExpired:
		if c.RemainingSessions <= 0 {
			return c, nil, internal.ErrCardExhausted
		}
		return c, nil, internal.ErrCardExpired
	default:
		return c, nil, internal.ErrCardNotActive.WithMessage(fmt.Sprintf("card is %s", c.Status))
	}

	if c.PastExpiry(at) {
		return c, nil, internal.ErrCardExpired
	}
	if c.RemainingSessions <= 0 {
		return c, nil, internal.ErrCardExhausted
	}

	c.RemainingSessions--
	effects := []Effect{{Kind: EffectSessionConsumed, At: at}}
	if c.RemainingSessions == 0 {
		c.Status = StatusExpired
		effects = append(effects, Effect{Kind: EffectExpired, At: at})
	}
	return c, effects, nil
}

func (m *Machine) freeze(c Card, at time.Time) (Card, []Effect, error) {
	if c.Status != StatusActive {
		return c, nil, invalidTransition(c, EventFreeze)
	}
	if c.PastExpiry(at) {
		return c, nil, internal.ErrCardExpired
	}

	frozen := at
	c.FrozenAt = &frozen
	c.Status = StatusFrozen
	return c, []Effect{{Kind: EffectFrozen, At: at}}, nil
}

func (m *Machine) unfreeze(c Card, at time.Time) (Card, []Effect, error) {
	if c.Status != StatusFrozen {
		return c, nil, invalidTransition(c, EventUnfreeze)
	}

	if m.policy.FreezeExtendsExpiry && c.ExpiryDate != nil && c.FrozenAt != nil && at.After(*c.FrozenAt) {
		extended := c.ExpiryDate.Add(at.Sub(*c.FrozenAt))
		c.ExpiryDate = &extended
	}
	c.FrozenAt = nil
	c.Status = StatusActive
	return c, []Effect{{Kind: EffectUnfrozen, At: at}}, nil
}

func (m *Machine) refund(c Card, at time.Time) (Card, []Effect, error) {
	if c.Status.IsTerminal() {
		return c, nil, invalidTransition(c, EventRefund)
	}

	refunded := at
	c.RefundedAt = &refunded
	c.Status = StatusRefunded
	return c, []Effect{{Kind: EffectRefunded, At: at}}, nil
}

func (m *Machine) expire(c Card, at time.Time) (Card, []Effect, error) {
	if c.Status != StatusActive || !c.PastExpiry(at) {
		return c, nil, invalidTransition(c, EventExpire)
	}

	c.Status = StatusExpired
	return c, []Effect{{Kind: EffectExpired, At: at}}, nil
}

// CheckEligibility reports whether c can pay for a visit at now. It returns
// nil when eligible and the blocking reason otherwise. It never mutates c.
func (m *Machine) CheckEligibility(c Card, now time.Time) error {
	if c.Status != StatusActive {
		if c.Status == StatusExpired {
			if c.BillingType == BillingTimes && c.RemainingSessions <= 0 {
				return internal.ErrCardExhausted
			}
			return internal.ErrCardExpired
		}
		return internal.ErrCardNotActive.WithMessage(fmt.Sprintf("card is %s", c.Status))
	}
	if c.ActivationDate == nil || now.Before(*c.ActivationDate) {
		return internal.ErrCardNotActive.WithMessage("card validity has not started")
	}
	if c.BillingType == BillingPeriod && c.ExpiryDate == nil {
		return internal.ErrCardNotActive.WithMessage("period card has no expiry date")
	}
	if c.PastExpiry(now) {
		return internal.ErrCardExpired
	}
	if c.BillingType == BillingTimes && c.RemainingSessions <= 0 {
		return internal.ErrCardExhausted
	}
	return nil
}

func invalidTransition(c Card, kind EventKind) error {
	return internal.ErrInvalidCardTransition.WithMessage(fmt.Sprintf("cannot %s a %s card", kind, c.Status))
}

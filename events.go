package impulse

import (
	"unsafe"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

type EventType uint8

// Pair events alternate trigger and collision variants, phase by phase
const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
	ON_COLLIDE
)

type pairPhase uint8

const (
	phaseEnter pairPhase = iota
	phaseStay
	phaseExit
)

// pairEventType maps a phase to its trigger or collision event
func pairEventType(phase pairPhase, trigger bool) EventType {
	kind := TRIGGER_ENTER + EventType(2*phase)
	if !trigger {
		kind++
	}
	return kind
}

// Event is anything sent to listeners
type Event interface {
	Type() EventType
}

// PairEvent reports that two bodies started, kept or stopped touching.
// Kind is one of the TRIGGER_* or COLLISION_* types.
type PairEvent struct {
	Kind  EventType
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e PairEvent) Type() EventType { return e.Kind }

// BodyEvent reports a body falling asleep (ON_SLEEP) or waking up (ON_WAKE)
type BodyEvent struct {
	Kind EventType
	Body *actor.RigidBody
}

func (e BodyEvent) Type() EventType { return e.Kind }

// CollideEvent is sent once when two bodies start touching, with the first contact
// of the pair. ImpactVelocity is the approach speed along the contact normal, before solving.
type CollideEvent struct {
	BodyA          *actor.RigidBody
	BodyB          *actor.RigidBody
	Contact        *constraint.ContactEquation
	ImpactVelocity float64
}

func (e CollideEvent) Type() EventType { return ON_COLLIDE }

type EventListener func(event Event)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey orders the bodies by address, so that (A,B) and (B,A) share a key
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if uintptr(unsafe.Pointer(bodyB)) < uintptr(unsafe.Pointer(bodyA)) {
		bodyA, bodyB = bodyB, bodyA
	}
	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

func (p pairKey) trigger() bool {
	return p.bodyA.IsTrigger || p.bodyB.IsTrigger
}

// pairState tells whether a pair touched during the last step and the current one
type pairState struct {
	before, now bool
}

// Events buffers what happens during a step and sends it to listeners at the end of it
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event

	pairs map[pairKey]pairState
	// Dernier état connu de chaque corps
	asleep map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
		pairs:     make(map[pairKey]pairState),
		asleep:    make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// touch marks the pair as touching during this step, and reports whether it already was
func (e *Events) touch(key pairKey) (seenThisStep, seenLastStep bool) {
	state := e.pairs[key]
	seenThisStep = state.now
	state.now = true
	e.pairs[key] = state

	return seenThisStep, state.before
}

// recordCollisions marks the pairs touching during this step. It must run before the
// solver, so that impact velocities are the ones of the approach.
func (e *Events) recordCollisions(contacts []*constraint.ContactEquation, overlaps []Pair) {
	for _, c := range contacts {
		seenThisStep, seenLastStep := e.touch(makePairKey(c.BodyA, c.BodyB))
		if seenThisStep || seenLastStep || !c.Enabled {
			continue
		}

		e.buffer = append(e.buffer, CollideEvent{
			BodyA:          c.BodyA,
			BodyB:          c.BodyB,
			Contact:        c,
			ImpactVelocity: c.ImpactVelocityAlongNormal(),
		})
	}

	for _, overlap := range overlaps {
		e.touch(makePairKey(overlap.BodyA, overlap.BodyB))
	}
}

// processPairEvents turns the touching states into enter, stay and exit events,
// then shifts them by one step
func (e *Events) processPairEvents() {
	for key, state := range e.pairs {
		switch {
		case state.now && key.bodyA.IsSleeping && key.bodyB.IsSleeping:
			// Deux corps endormis : pas d'événement, la paire reste active
		case state.now && state.before:
			e.emitPair(phaseStay, key)
		case state.now:
			e.emitPair(phaseEnter, key)
		case state.before:
			e.emitPair(phaseExit, key)
		}

		if !state.now {
			delete(e.pairs, key)
			continue
		}
		e.pairs[key] = pairState{before: true}
	}
}

func (e *Events) emitPair(phase pairPhase, key pairKey) {
	e.buffer = append(e.buffer, PairEvent{
		Kind:  pairEventType(phase, key.trigger()),
		BodyA: key.bodyA,
		BodyB: key.bodyB,
	})
}

// processSleepEvents compares each body with its last known state. The first
// time a body is seen, its state is only recorded.
func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		wasAsleep, known := e.asleep[body]
		e.asleep[body] = body.IsSleeping
		if !known || wasAsleep == body.IsSleeping {
			continue
		}

		kind := ON_WAKE
		if body.IsSleeping {
			kind = ON_SLEEP
		}
		e.buffer = append(e.buffer, BodyEvent{Kind: kind, Body: body})
	}
}

// forget drops every trace of a removed body
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.asleep, body)
	for key := range e.pairs {
		if key.bodyA == body || key.bodyB == body {
			delete(e.pairs, key)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processPairEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}

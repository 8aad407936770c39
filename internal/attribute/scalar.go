// Package attribute holds value cells that tell dependents when they change.
//
// Cells do no locking. A holder shared between goroutines must synchronize
// access itself, and listeners run on the goroutine that mutated the cell.
package attribute

import "fmt"

// ChangeThreshold is the smallest value delta that notifies listeners.
const ChangeThreshold float32 = 0.01

// AggregateType tags how a value combines with sibling values.
type AggregateType uint8

const (
	AggregateUndefined AggregateType = iota
	AggregateAddRaw
	AggregateMultiplicate
	AggregateAddFinal
	AggregateMaximum
)

func (t AggregateType) String() string {
	switch t {
	case AggregateUndefined:
		return "undefined"
	case AggregateAddRaw:
		return "add_raw"
	case AggregateMultiplicate:
		return "multiplicate"
	case AggregateAddFinal:
		return "add_final"
	case AggregateMaximum:
		return "maximum"
	default:
		return fmt.Sprintf("aggregate(%d)", uint8(t))
	}
}

// Element is a readable value cell.
type Element interface {
	Value() float32
	AggregateType() AggregateType
}

// Listener is called after an element changed.
type Listener func(Element)

// Handle identifies one subscription. The zero Handle is never issued.
type Handle uint64

type subscription struct {
	handle   Handle
	listener Listener
}

// Scalar is a float32 cell with debounced change notification. The zero
// value holds 0 with an undefined aggregate type.
type Scalar struct {
	value     float32
	aggregate AggregateType

	subs []subscription
	next Handle
}

var _ Element = (*Scalar)(nil)

func NewScalar(v float32, t AggregateType) *Scalar {
	return &Scalar{value: v, aggregate: t}
}

func (s *Scalar) Value() float32 {
	return s.value
}

func (s *Scalar) AggregateType() AggregateType {
	return s.aggregate
}

// SetValue stores v. Listeners are notified only when v differs from the
// stored value by more than ChangeThreshold; smaller steps are kept but not
// announced.
func (s *Scalar) SetValue(v float32) {
	delta := s.value - v
	if delta < 0 {
		delta = -delta
	}
	s.value = v
	if delta > ChangeThreshold {
		s.notify()
	}
}

// SetAggregateType notifies on every actual transition, whatever the value.
func (s *Scalar) SetAggregateType(t AggregateType) {
	if s.aggregate == t {
		return
	}
	s.aggregate = t
	s.notify()
}

// Subscribe appends l to the listener list.
func (s *Scalar) Subscribe(l Listener) Handle {
	if l == nil {
		return 0
	}
	s.next++
	s.subs = append(s.subs, subscription{handle: s.next, listener: l})
	return s.next
}

// Unsubscribe removes the listener behind h. Unknown handles are ignored.
func (s *Scalar) Unsubscribe(h Handle) {
	for i, sub := range s.subs {
		if sub.handle == h {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Scalar) Subscribers() int {
	return len(s.subs)
}

func (s *Scalar) notify() {
	// listeners may change the list while we iterate
	subs := s.subs
	for _, sub := range subs {
		sub.listener(s)
	}
}

package match

import "time"

// Observer receives engine notifications on the tick goroutine. Calls must
// return quickly; snapshots passed in are only valid during the call.
type Observer interface {
	TickCompleted(s *Snapshot, elapsed time.Duration)
	EventRecorded(ev Event)
	ActionRejected(err *InvalidActionError)
	PhaseChanged(from, to Phase)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) TickCompleted(*Snapshot, time.Duration) {}
func (NopObserver) EventRecorded(Event)                    {}
func (NopObserver) ActionRejected(*InvalidActionError)     {}
func (NopObserver) PhaseChanged(Phase, Phase)              {}

// multiObserver fans out to several observers in order.
type multiObserver []Observer

func (m multiObserver) TickCompleted(s *Snapshot, elapsed time.Duration) {
	for _, o := range m {
		o.TickCompleted(s, elapsed)
	}
}

func (m multiObserver) EventRecorded(ev Event) {
	for _, o := range m {
		o.EventRecorded(ev)
	}
}

func (m multiObserver) ActionRejected(err *InvalidActionError) {
	for _, o := range m {
		o.ActionRejected(err)
	}
}

func (m multiObserver) PhaseChanged(from, to Phase) {
	for _, o := range m {
		o.PhaseChanged(from, to)
	}
}

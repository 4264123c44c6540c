package events

// Publisher emits settlement events for downstream consumers (reporting,
// XP/tier engine, treasury tooling). Publishing is best-effort: callers log
// and continue on error, settlement state never depends on delivery.
type Publisher interface {
	Publish(eventType string, event any) error
}

// Event types.
const (
	TypeEntryCreated      = "entry_created"
	TypeDepositCredited   = "deposit_credited"
	TypeSweepCompleted    = "sweep_completed"
	TypeSweepFailed       = "sweep_failed"
	TypeWithdrawalSettled = "withdrawal_settled"
)

// NopPublisher discards all events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(eventType string, event any) error

func (f PublisherFunc) Publish(eventType string, event any) error {
	return f(eventType, event)
}

// Fanout publishes to every wrapped publisher. All publishers are attempted;
// the first error is returned.
type Fanout []Publisher

func (f Fanout) Publish(eventType string, event any) error {
	var first error
	for _, p := range f {
		if err := p.Publish(eventType, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

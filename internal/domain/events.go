package domain

import "time"

// DomainEvent represents a significant occurrence in a coverage run.
type DomainEvent interface {
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
	// EventType returns the type of event.
	EventType() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	occurredAt time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// NewBaseEvent creates a new base event with current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{occurredAt: time.Now()}
}

// CoverageGeneratedEvent is raised after a provider produced results.
type CoverageGeneratedEvent struct {
	BaseEvent
	Provider  string
	FileCount int
	Global    Percentages
}

// EventType returns the event type identifier.
func (e CoverageGeneratedEvent) EventType() string {
	return "CoverageGenerated"
}

// NewCoverageGeneratedEvent creates a new CoverageGeneratedEvent.
func NewCoverageGeneratedEvent(provider string, summary CoverageSummary) CoverageGeneratedEvent {
	return CoverageGeneratedEvent{
		BaseEvent: NewBaseEvent(),
		Provider:  provider,
		FileCount: len(summary.Files),
		Global:    summary.Global.Percentages(),
	}
}

// ThresholdViolatedEvent is raised when coverage falls below a threshold.
type ThresholdViolatedEvent struct {
	BaseEvent
	Violation
	Shortfall float64
}

// EventType returns the event type identifier.
func (e ThresholdViolatedEvent) EventType() string {
	return "ThresholdViolated"
}

// NewThresholdViolatedEvent creates a new ThresholdViolatedEvent.
func NewThresholdViolatedEvent(v Violation) ThresholdViolatedEvent {
	return ThresholdViolatedEvent{
		BaseEvent: NewBaseEvent(),
		Violation: v,
		Shortfall: v.Shortfall(),
	}
}

// ThresholdUpdatedEvent is raised when a threshold was auto-raised.
type ThresholdUpdatedEvent struct {
	BaseEvent
	ThresholdUpdate
	Delta float64
}

// EventType returns the event type identifier.
func (e ThresholdUpdatedEvent) EventType() string {
	return "ThresholdUpdated"
}

// NewThresholdUpdatedEvent creates a new ThresholdUpdatedEvent.
func NewThresholdUpdatedEvent(u ThresholdUpdate) ThresholdUpdatedEvent {
	return ThresholdUpdatedEvent{
		BaseEvent:       NewBaseEvent(),
		ThresholdUpdate: u,
		Delta:           Round1(u.Updated - u.Previous),
	}
}

// CollectionFailedEvent is raised when a file's coverage payload was lost.
type CollectionFailedEvent struct {
	BaseEvent
	File     string
	WorkerID int
	Reason   string
}

// EventType returns the event type identifier.
func (e CollectionFailedEvent) EventType() string {
	return "CollectionFailed"
}

// NewCollectionFailedEvent creates a new CollectionFailedEvent.
func NewCollectionFailedEvent(file string, workerID int, err error) CollectionFailedEvent {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return CollectionFailedEvent{
		BaseEvent: NewBaseEvent(),
		File:      file,
		WorkerID:  workerID,
		Reason:    reason,
	}
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishAll(events []DomainEvent) error
}

// EventCollector collects domain events for later publishing.
type EventCollector struct {
	events []DomainEvent
}

// NewEventCollector creates a new event collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{
		events: make([]DomainEvent, 0),
	}
}

// Record adds an event to the collector.
func (c *EventCollector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns all collected events.
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// Clear removes all collected events.
func (c *EventCollector) Clear() {
	c.events = make([]DomainEvent, 0)
}

// HasEvents returns true if there are any collected events.
func (c *EventCollector) HasEvents() bool {
	return len(c.events) > 0
}

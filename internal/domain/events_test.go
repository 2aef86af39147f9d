package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBaseEvent(t *testing.T) {
	t.Run("NewBaseEvent sets timestamp", func(t *testing.T) {
		before := time.Now()
		event := NewBaseEvent()
		after := time.Now()

		if event.OccurredAt().Before(before) || event.OccurredAt().After(after) {
			t.Error("OccurredAt should be between before and after")
		}
	})
}

func TestCoverageGeneratedEvent(t *testing.T) {
	summary := NewCoverageSummary(map[string]FileSummary{
		"a.go": {Statements: Metric{Covered: 1, Total: 2}},
		"b.go": {Statements: Metric{Covered: 1, Total: 2}},
	})
	event := NewCoverageGeneratedEvent("gocover", summary)

	if event.EventType() != "CoverageGenerated" {
		t.Errorf("Expected EventType 'CoverageGenerated', got '%s'", event.EventType())
	}
	if event.FileCount != 2 {
		t.Errorf("Expected FileCount 2, got %d", event.FileCount)
	}
	if event.Global[MetricStatements] != 50 {
		t.Errorf("Expected statements 50, got %v", event.Global[MetricStatements])
	}
}

func TestThresholdViolatedEvent(t *testing.T) {
	event := NewThresholdViolatedEvent(Violation{Scope: ScopeGlobal, Metric: MetricLines, Actual: 75, Required: 80})

	if event.EventType() != "ThresholdViolated" {
		t.Errorf("Expected EventType 'ThresholdViolated', got '%s'", event.EventType())
	}
	if event.Scope != ScopeGlobal {
		t.Errorf("Expected scope global, got '%s'", event.Scope)
	}
	if event.Shortfall != 5.0 {
		t.Errorf("Expected Shortfall 5.0, got %v", event.Shortfall)
	}
}

func TestThresholdUpdatedEvent(t *testing.T) {
	event := NewThresholdUpdatedEvent(ThresholdUpdate{Scope: "src/**", Metric: MetricBranches, Previous: 70, Updated: 85})

	if event.EventType() != "ThresholdUpdated" {
		t.Errorf("Expected EventType 'ThresholdUpdated', got '%s'", event.EventType())
	}
	if event.Delta != 15.0 {
		t.Errorf("Expected Delta 15.0, got %v", event.Delta)
	}
}

func TestCollectionFailedEvent(t *testing.T) {
	event := NewCollectionFailedEvent("pkg/a_test.go", 3, errors.New("no profile"))

	if event.EventType() != "CollectionFailed" {
		t.Errorf("Expected EventType 'CollectionFailed', got '%s'", event.EventType())
	}
	if event.Reason != "no profile" || event.WorkerID != 3 {
		t.Errorf("unexpected event %+v", event)
	}
	if got := NewCollectionFailedEvent("x", 0, nil).Reason; got != "" {
		t.Errorf("Expected empty reason, got %q", got)
	}
}

func TestEventCollector(t *testing.T) {
	t.Run("NewEventCollector creates empty collector", func(t *testing.T) {
		collector := NewEventCollector()

		if collector.HasEvents() {
			t.Error("New collector should have no events")
		}
		if len(collector.Events()) != 0 {
			t.Error("New collector should have empty events slice")
		}
	})

	t.Run("Record keeps order and Clear empties", func(t *testing.T) {
		collector := NewEventCollector()

		collector.Record(NewCoverageGeneratedEvent("lcov", CoverageSummary{}))
		collector.Record(NewThresholdViolatedEvent(Violation{Scope: ScopeGlobal, Metric: MetricLines, Actual: 1, Required: 2}))
		collector.Record(NewCollectionFailedEvent("a", 1, nil))

		events := collector.Events()
		if len(events) != 3 {
			t.Fatalf("Expected 3 events, got %d", len(events))
		}
		if events[0].EventType() != "CoverageGenerated" || events[2].EventType() != "CollectionFailed" {
			t.Errorf("unexpected order: %s, %s", events[0].EventType(), events[2].EventType())
		}

		collector.Clear()
		if collector.HasEvents() {
			t.Error("Collector should have no events after clear")
		}
	})
}

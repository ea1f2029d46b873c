// Tracks run-wide counters for the simulation: orders, attempts by outcome,
// restocks, expiries, maintenance activity and handler faults.

package sim

import (
	"fmt"
	"time"
)

// FaultRecord captures one handler execution fault: the step it happened on,
// the event kind that was executing, and the error text.
type FaultRecord struct {
	Step int
	Kind EventKind
	Err  string
}

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	StepsExecuted int
	EventCounts   map[EventKind]int
	NoOpEvents    int

	OrdersCreated     int
	OrderItemsCreated int
	OrdersFulfilled   int

	AttemptSuccesses int
	AttemptFailures  int
	FailureReasons   map[FailureReason]int
	UnitsFulfilled   int

	Restocks           int
	RestockRollsFailed int

	OrdersExpired        int
	OrdersPartialExpired int

	MaintenanceRuns   int
	LogRecordsFlushed int
	SnapshotRecords   int

	Faults []FaultRecord
}

// NewMetrics returns zeroed metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventCounts:    make(map[EventKind]int),
		FailureReasons: make(map[FailureReason]int),
	}
}

func (m *Metrics) recordFault(step int, kind EventKind, err error) {
	m.Faults = append(m.Faults, FaultRecord{Step: step, Kind: kind, Err: err.Error()})
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(wallStart time.Time) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Steps executed        : %d\n", m.StepsExecuted)
	for _, k := range []EventKind{EventOrderCreation, EventFulfillmentAttempt, EventRestocking, EventIdle} {
		fmt.Printf("  %-20s: %d\n", k, m.EventCounts[k])
	}
	fmt.Printf("Orders created        : %d (%d items)\n", m.OrdersCreated, m.OrderItemsCreated)
	fmt.Printf("Orders fulfilled      : %d\n", m.OrdersFulfilled)
	fmt.Printf("Orders expired        : %d (+%d partial-expired)\n", m.OrdersExpired, m.OrdersPartialExpired)
	fmt.Printf("Attempts              : %d success / %d failure, %d units moved\n",
		m.AttemptSuccesses, m.AttemptFailures, m.UnitsFulfilled)
	for reason, n := range m.FailureReasons {
		if reason == ReasonNone {
			continue
		}
		fmt.Printf("  %-20s: %d\n", reason, n)
	}
	fmt.Printf("Restocks              : %d triggered, %d rolls failed\n", m.Restocks, m.RestockRollsFailed)
	fmt.Printf("Maintenance runs      : %d (%d log records, %d snapshots)\n",
		m.MaintenanceRuns, m.LogRecordsFlushed, m.SnapshotRecords)
	fmt.Printf("Handler faults        : %d\n", len(m.Faults))
	fmt.Printf("Wall-clock duration   : %.2fs\n", time.Since(wallStart).Seconds())
}

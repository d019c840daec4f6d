package telemetry

import "testing"

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestEventDetector_Lifecycle(t *testing.T) {
	d := NewEventDetector(10, 50, 1)

	// large error before ever locking on is not a divergence
	if ev := d.Check(1, 200); len(ev) != 0 {
		t.Fatalf("expected no events while searching, got %v", eventTypes(ev))
	}

	ev := d.Check(2, 5)
	if len(ev) != 1 || ev[0].Type != EventConverged {
		t.Fatalf("expected converged, got %v", eventTypes(ev))
	}
	if !d.Converged() {
		t.Error("detector should report converged")
	}

	// inside the hysteresis band nothing happens
	if ev := d.Check(3, 30); len(ev) != 0 {
		t.Fatalf("expected no events in band, got %v", eventTypes(ev))
	}

	ev = d.Check(4, 80)
	if len(ev) != 1 || ev[0].Type != EventDiverged {
		t.Fatalf("expected diverged, got %v", eventTypes(ev))
	}
	if ev[0].Step != 4 {
		t.Errorf("event step = %d, want 4", ev[0].Step)
	}

	ev = d.Check(5, 3)
	if len(ev) != 1 || ev[0].Type != EventRecovered {
		t.Fatalf("expected recovered, got %v", eventTypes(ev))
	}
}

func TestEventDetector_Smoothing(t *testing.T) {
	d := NewEventDetector(10, 50, 4)

	for step := 1; step <= 4; step++ {
		d.Check(step, 2)
	}
	if !d.Converged() {
		t.Fatal("expected converged after low errors")
	}

	// one outlier is averaged away
	if ev := d.Check(5, 150); len(ev) != 0 {
		t.Fatalf("single spike should not diverge, got %v", eventTypes(ev))
	}

	var diverged bool
	for step := 6; step <= 9; step++ {
		for _, e := range d.Check(step, 150) {
			if e.Type == EventDiverged {
				diverged = true
			}
		}
	}
	if !diverged {
		t.Error("sustained error should diverge")
	}
}

func TestEventDetector_Reset(t *testing.T) {
	d := NewEventDetector(10, 50, 3)
	e := d.Reset(42, 1.5)
	if e.Type != EventReset || e.Step != 42 {
		t.Errorf("unexpected reset event %+v", e)
	}
}

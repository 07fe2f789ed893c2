package domain

import "testing"

func TestIdealVisitWindowDeviation(t *testing.T) {
	w := IdealVisitWindow{StartHour: 9, EndHour: 11}

	if got := w.DeviationHours(8); got != 1 {
		t.Errorf("deviation(8) = %d, want 1", got)
	}
	if got := w.DeviationHours(9); got != 0 {
		t.Errorf("deviation(9) = %d, want 0", got)
	}
	if got := w.DeviationHours(11); got != 0 {
		t.Errorf("deviation(11) = %d, want 0", got)
	}
	if got := w.DeviationHours(14); got != 3 {
		t.Errorf("deviation(14) = %d, want 3", got)
	}
}

func TestIdealVisitWindowValidate(t *testing.T) {
	if err := (IdealVisitWindow{StartHour: 12, EndHour: 10}).Validate(); err == nil {
		t.Errorf("expected error for inverted window")
	}
	if err := (IdealVisitWindow{StartHour: 0, EndHour: 24}).Validate(); err == nil {
		t.Errorf("expected error for hour 24")
	}
	if err := (IdealVisitWindow{StartHour: 0, EndHour: 23}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStopVisitMinutesDefault(t *testing.T) {
	s := Stop{ID: "a"}
	if got := s.VisitMinutes(30); got != 30 {
		t.Fatalf("visit minutes = %d, want 30", got)
	}

	d := 45
	s.VisitDurationMinutes = &d
	if got := s.VisitMinutes(30); got != 45 {
		t.Fatalf("visit minutes = %d, want 45", got)
	}
}

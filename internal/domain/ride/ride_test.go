package ride

import (
	"testing"
	"time"
)

func validParams() CreateParams {
	dep := time.Date(2026, 9, 12, 8, 30, 0, 0, time.UTC)
	return CreateParams{
		ID:             "rd-1",
		DriverID:       "driver-1",
		VehicleID:      "veh-1",
		Origin:         "Madrid",
		Destination:    "Valencia",
		DepartureAt:    dep,
		ArrivalAt:      dep.Add(3 * time.Hour),
		Capacity:       3,
		SeatPriceCents: 1800,
		CreatedAt:      time.Now(),
	}
}

func TestNewRideValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantErr error
	}{
		{"valid", func(p *CreateParams) {}, nil},
		{"zero capacity", func(p *CreateParams) { p.Capacity = 0 }, ErrInvalidCapacity},
		{"negative capacity", func(p *CreateParams) { p.Capacity = -1 }, ErrInvalidCapacity},
		{"arrival before departure", func(p *CreateParams) { p.ArrivalAt = p.DepartureAt.Add(-time.Hour) }, ErrInvalidSchedule},
		{"arrival equals departure", func(p *CreateParams) { p.ArrivalAt = p.DepartureAt }, ErrInvalidSchedule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			rd, err := NewRide(params)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("NewRide() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRide() unexpected error: %v", err)
			}
			if rd.State != StateScheduled {
				t.Errorf("state = %s, want %s", rd.State, StateScheduled)
			}
		})
	}
}

func TestNewRideRequiresPlaces(t *testing.T) {
	params := validParams()
	params.Origin = "   "
	if _, err := NewRide(params); err == nil {
		t.Error("expected error for blank origin")
	}
	params = validParams()
	params.Destination = ""
	if _, err := NewRide(params); err == nil {
		t.Error("expected error for blank destination")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Now()

	t.Run("scheduled to in_progress to completed", func(t *testing.T) {
		rd, _ := NewRide(validParams())
		if err := rd.Start(now); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if rd.State != StateInProgress {
			t.Fatalf("state = %s", rd.State)
		}
		if err := rd.Complete(now); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if rd.State != StateCompleted {
			t.Fatalf("state = %s", rd.State)
		}
	})

	t.Run("cannot complete without starting", func(t *testing.T) {
		rd, _ := NewRide(validParams())
		if err := rd.Complete(now); err != ErrInvalidState {
			t.Errorf("Complete from scheduled: error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("cancel only from scheduled", func(t *testing.T) {
		rd, _ := NewRide(validParams())
		if err := rd.Cancel(now); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if rd.State != StateCancelled {
			t.Fatalf("state = %s", rd.State)
		}

		started, _ := NewRide(validParams())
		_ = started.Start(now)
		if err := started.Cancel(now); err != ErrInvalidState {
			t.Errorf("Cancel in progress: error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("terminal states are frozen", func(t *testing.T) {
		rd, _ := NewRide(validParams())
		_ = rd.Cancel(now)
		if err := rd.Start(now); err != ErrInvalidState {
			t.Errorf("Start after cancel: error = %v", err)
		}
		if err := rd.Cancel(now); err != ErrInvalidState {
			t.Errorf("Cancel after cancel: error = %v", err)
		}
	})
}

func TestApplyUpdateOnlyWhileScheduled(t *testing.T) {
	now := time.Now()
	update := UpdateParams{
		Origin:         "Sevilla",
		Destination:    "Granada",
		DepartureAt:    now.Add(48 * time.Hour),
		Capacity:       2,
		SeatPriceCents: 900,
	}

	rd, _ := NewRide(validParams())
	if err := rd.ApplyUpdate(update, now); err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if rd.Origin != "Sevilla" || rd.Capacity != 2 {
		t.Errorf("update not applied: %+v", rd)
	}

	started, _ := NewRide(validParams())
	_ = started.Start(now)
	if err := started.ApplyUpdate(update, now); err != ErrInvalidState {
		t.Errorf("ApplyUpdate in progress: error = %v, want ErrInvalidState", err)
	}
}

func TestFareFor(t *testing.T) {
	rd, _ := NewRide(validParams())
	fare := rd.FareFor(3)
	if fare.Amount != 5400 {
		t.Errorf("fare = %d, want 5400", fare.Amount)
	}
	if fare.Currency != PriceCurrency {
		t.Errorf("currency = %s, want %s", fare.Currency, PriceCurrency)
	}
}

func TestSearchParamsNormalized(t *testing.T) {
	p := SearchParams{Origin: "  MaDrid ", MinSeats: -2, Limit: 500, Offset: -1, Sort: "bogus"}
	n := p.Normalized()
	if n.Origin != "madrid" {
		t.Errorf("origin = %q", n.Origin)
	}
	if n.MinSeats != 0 || n.Offset != 0 {
		t.Errorf("negative values not clamped: %+v", n)
	}
	if n.Limit != 60 {
		t.Errorf("limit = %d, want 60", n.Limit)
	}
	if n.Sort != SortByDeparture {
		t.Errorf("sort = %s, want %s", n.Sort, SortByDeparture)
	}
}

package booking

import "testing"

func bookingsIn(states ...BookingState) []*Booking {
	out := make([]*Booking, 0, len(states))
	for i, s := range states {
		out = append(out, &Booking{ID: BookingID(string(rune('a' + i))), Seats: 2, State: s})
	}
	return out
}

func TestCommittedSeats(t *testing.T) {
	tests := []struct {
		name     string
		bookings []*Booking
		want     int
	}{
		{"empty", nil, 0},
		{"pending does not commit", bookingsIn(StatePending), 0},
		{"accepted commits", bookingsIn(StateAccepted), 2},
		{"completed still commits", bookingsIn(StateCompleted), 2},
		{"rejected and cancelled release", bookingsIn(StateRejected, StateCancelled), 0},
		{"mixed", bookingsIn(StateAccepted, StatePending, StateCompleted, StateCancelled), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommittedSeats(tt.bookings); got != tt.want {
				t.Errorf("CommittedSeats() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingSeats(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		bookings []*Booking
		want     int
	}{
		{"full capacity when unbooked", 4, nil, 4},
		{"accepted reduce", 4, bookingsIn(StateAccepted), 2},
		{"oversold snapshot goes negative", 2, bookingsIn(StateAccepted, StateAccepted), -2},
		{"pending ignored", 3, bookingsIn(StatePending, StatePending), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingSeats(tt.capacity, tt.bookings); got != tt.want {
				t.Errorf("RemainingSeats() = %d, want %d", got, tt.want)
			}
		})
	}
}

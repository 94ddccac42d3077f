package booking

// CommittedSeats sums the seats of every booking in a capacity-consuming
// state. Pure; the slice must be a consistent snapshot of the ride's bookings.
func CommittedSeats(bookings []*Booking) int {
	total := 0
	for _, b := range bookings {
		if b == nil {
			continue
		}
		if b.State.ConsumesCapacity() {
			total += b.Seats
		}
	}
	return total
}

// RemainingSeats computes how many seats a ride can still commit. A zero or
// negative result means unavailable; the ledger never fails on an oversold
// snapshot, it just reports the floor.
func RemainingSeats(capacity int, bookings []*Booking) int {
	return capacity - CommittedSeats(bookings)
}

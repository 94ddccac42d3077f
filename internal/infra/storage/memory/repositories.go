package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainbooking "carpool/internal/domain/booking"
	domainrating "carpool/internal/domain/rating"
	domainride "carpool/internal/domain/ride"
)

var (
	// ErrRideNotFound is returned when a ride cannot be located in memory.
	ErrRideNotFound = errors.New("memory: ride not found")
	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("memory: booking not found")
)

// RideRepository is an in-memory ride store used by tests and local runs.
type RideRepository struct {
	mu    sync.RWMutex
	items map[domainride.RideID]*domainride.Ride
}

func NewRideRepository() *RideRepository {
	return &RideRepository{items: make(map[domainride.RideID]*domainride.Ride)}
}

func (r *RideRepository) ByID(ctx context.Context, id domainride.RideID) (*domainride.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.items[id]
	if !ok {
		return nil, ErrRideNotFound
	}
	return rd, nil
}

func (r *RideRepository) Save(ctx context.Context, rd *domainride.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd.Version++
	r.items[rd.ID] = rd
	return nil
}

func (r *RideRepository) Delete(ctx context.Context, id domainride.RideID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrRideNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domainride.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainride.Ride, 0)
	for _, rd := range r.items {
		if rd.DriverID == driverID {
			matches = append(matches, rd)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DepartureAt.Before(matches[j].DepartureAt)
	})
	return matches, nil
}

// Search filters rides the way the catalog endpoint expects.
func (r *RideRepository) Search(ctx context.Context, params domainride.SearchParams) (domainride.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainride.Ride, 0, len(r.items))
	for _, rd := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domainride.SearchResult{}, ctx.Err()
			default:
			}
		}

		if opts.OnlyScheduled && rd.State != domainride.StateScheduled {
			continue
		}
		if opts.Driver != "" && rd.DriverID != opts.Driver {
			continue
		}
		if len(opts.States) > 0 && !stateIncluded(rd.State, opts.States) {
			continue
		}
		if opts.Origin != "" && !strings.Contains(strings.ToLower(rd.Origin), opts.Origin) {
			continue
		}
		if opts.Destination != "" && !strings.Contains(strings.ToLower(rd.Destination), opts.Destination) {
			continue
		}
		if !opts.DepartsAfter.IsZero() && rd.DepartureAt.Before(opts.DepartsAfter) {
			continue
		}
		if !opts.DepartsBefore.IsZero() && rd.DepartureAt.After(opts.DepartsBefore) {
			continue
		}
		if opts.MinSeats > 0 && rd.Capacity < opts.MinSeats {
			continue
		}
		matches = append(matches, rd)
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainride.SortByPriceAsc:
			if matches[i].SeatPriceCents == matches[j].SeatPriceCents {
				return matches[i].DepartureAt.Before(matches[j].DepartureAt)
			}
			return matches[i].SeatPriceCents < matches[j].SeatPriceCents
		case domainride.SortByNewest:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].DepartureAt.Before(matches[j].DepartureAt)
			}
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		default:
			if matches[i].DepartureAt.Equal(matches[j].DepartureAt) {
				return matches[i].SeatPriceCents < matches[j].SeatPriceCents
			}
			return matches[i].DepartureAt.Before(matches[j].DepartureAt)
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainride.SearchResult{Items: matches[start:end], Total: total}, nil
}

func stateIncluded(state domainride.RideState, allowed []domainride.RideState) bool {
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) ListByRide(ctx context.Context, rideID domainride.RideID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.RideID == rideID {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := strings.TrimSpace(passengerID)
	if id == "" {
		return nil, errors.New("memory: passenger id required")
	}
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PassengerID == id {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) DeleteByRide(ctx context.Context, rideID domainride.RideID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.items {
		if b.RideID == rideID {
			delete(r.items, id)
		}
	}
	return nil
}

// RatingRepository keys ratings by (booking, rater) so the at-most-one rule
// holds structurally.
type RatingRepository struct {
	mu    sync.RWMutex
	items map[string]*domainrating.Rating
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{items: make(map[string]*domainrating.Rating)}
}

func (r *RatingRepository) ByBookingRater(ctx context.Context, bookingID domainbooking.BookingID, raterID string) (*domainrating.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rt, ok := r.items[ratingKey(bookingID, raterID)]; ok {
		return rt, nil
	}
	return nil, domainrating.ErrNotFound
}

func (r *RatingRepository) ListByRated(ctx context.Context, ratedID string) ([]*domainrating.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainrating.Rating, 0)
	for _, rt := range r.items {
		if rt.RatedID == ratedID {
			matches = append(matches, rt)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *RatingRepository) Save(ctx context.Context, rt *domainrating.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[ratingKey(rt.BookingID, rt.RaterID)] = rt
	return nil
}

func ratingKey(bookingID domainbooking.BookingID, raterID string) string {
	return string(bookingID) + ":" + raterID
}

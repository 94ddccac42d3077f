package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carpool/internal/app/commands"
	"carpool/internal/app/dto"
	rideapp "carpool/internal/app/handlers/ride"
	"carpool/internal/app/queries"
)

type RideHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type publishRideRequest struct {
	VehicleID      string    `json:"vehicle_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureAt    time.Time `json:"departure_at"`
	ArrivalAt      time.Time `json:"arrival_at"`
	Capacity       int       `json:"capacity"`
	SeatPriceCents int64     `json:"seat_price_cents"`
	AutoAccept     bool      `json:"auto_accept"`
}

func (h RideHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req publishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rideapp.PublishRideCommand{
		CommandID:       uuid.NewString(),
		DriverID:        user.ID,
		VehicleID:       req.VehicleID,
		Origin:          req.Origin,
		Destination:     req.Destination,
		DepartureAt:     req.DepartureAt,
		ArrivalAt:       req.ArrivalAt,
		Capacity:        req.Capacity,
		SeatPriceCents:  req.SeatPriceCents,
		AutoAccept:      req.AutoAccept,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rideapp.PublishRideCommand, *rideapp.PublishRideResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h RideHandler) Search(c *gin.Context) {
	q := rideapp.SearchRidesQuery{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Sort:        c.Query("sort"),
		MinSeats:    intQuery(c, "seats"),
		Limit:       intQuery(c, "limit"),
		Offset:      intQuery(c, "offset"),
	}
	if v := c.Query("departs_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "departs_after must be RFC3339"})
			return
		}
		q.DepartsAfter = t
	}
	if v := c.Query("departs_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "departs_before must be RFC3339"})
			return
		}
		q.DepartsBefore = t
	}
	result, err := queries.Ask[rideapp.SearchRidesQuery, dto.RideCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) Get(c *gin.Context) {
	q := rideapp.GetRideQuery{RideID: c.Param("id")}
	result, err := queries.Ask[rideapp.GetRideQuery, dto.Ride](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) ListMine(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := rideapp.SearchRidesQuery{
		Driver: user.ID,
		Sort:   c.Query("sort"),
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	result, err := queries.Ask[rideapp.SearchRidesQuery, dto.RideCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) Update(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req publishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rideapp.UpdateRideCommand{
		DriverID:       user.ID,
		RideID:         c.Param("id"),
		Origin:         req.Origin,
		Destination:    req.Destination,
		DepartureAt:    req.DepartureAt,
		ArrivalAt:      req.ArrivalAt,
		Capacity:       req.Capacity,
		SeatPriceCents: req.SeatPriceCents,
		AutoAccept:     req.AutoAccept,
	}
	result, err := commands.Dispatch[rideapp.UpdateRideCommand, *rideapp.UpdateRideResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) Delete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := rideapp.DeleteRideCommand{DriverID: user.ID, RideID: c.Param("id")}
	if _, err := commands.Dispatch[rideapp.DeleteRideCommand, *rideapp.UpdateRideResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h RideHandler) Start(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := rideapp.StartRideCommand{DriverID: user.ID, RideID: c.Param("id")}
	result, err := commands.Dispatch[rideapp.StartRideCommand, *rideapp.RideLifecycleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) Complete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := rideapp.CompleteRideCommand{DriverID: user.ID, RideID: c.Param("id")}
	result, err := commands.Dispatch[rideapp.CompleteRideCommand, *rideapp.RideLifecycleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RideHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := rideapp.CancelRideCommand{DriverID: user.ID, RideID: c.Param("id")}
	result, err := commands.Dispatch[rideapp.CancelRideCommand, *rideapp.RideLifecycleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string) int {
	v := c.Query(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

var _ RideHTTP = RideHandler{}

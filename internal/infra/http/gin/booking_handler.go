package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carpool/internal/app/commands"
	"carpool/internal/app/dto"
	bookingapp "carpool/internal/app/handlers/booking"
	"carpool/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type requestBookingRequest struct {
	RideID string `json:"ride_id"`
	Seats  int    `json:"seats"`
	Note   string `json:"note"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       uuid.NewString(),
		RideID:          req.RideID,
		PassengerID:     user.ID,
		Seats:           req.Seats,
		Note:            req.Note,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type decideBookingRequest struct {
	Note string `json:"note"`
}

func (h BookingHandler) Accept(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req decideBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.AcceptBookingCommand{DriverID: user.ID, BookingID: c.Param("id"), Note: req.Note}
	result, err := commands.Dispatch[bookingapp.AcceptBookingCommand, *bookingapp.BookingDecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Reject(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req decideBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.RejectBookingCommand{DriverID: user.ID, BookingID: c.Param("id"), Note: req.Note}
	result, err := commands.Dispatch[bookingapp.RejectBookingCommand, *bookingapp.BookingDecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{PassengerID: user.ID, BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.BookingDecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMine returns the caller's bookings as a passenger.
func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := bookingapp.ListPassengerBookingsQuery{PassengerID: user.ID}
	result, err := queries.Ask[bookingapp.ListPassengerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Inbox returns bookings across the caller's rides, pending by default.
func (h BookingHandler) Inbox(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := bookingapp.ListDriverBookingsQuery{DriverID: user.ID, Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListDriverBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}

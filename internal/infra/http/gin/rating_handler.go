package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carpool/internal/app/commands"
	"carpool/internal/app/dto"
	ratingapp "carpool/internal/app/handlers/rating"
	"carpool/internal/app/queries"
)

type RatingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Eligibility is the pre-flight check the client calls before showing the
// rating form.
func (h RatingHandler) Eligibility(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := ratingapp.RatingEligibilityQuery{BookingID: c.Param("id"), ActorID: user.ID}
	result, err := queries.Ask[ratingapp.RatingEligibilityQuery, dto.RatingEligibility](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type submitRatingRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h RatingHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ratingapp.SubmitRatingCommand{
		BookingID: c.Param("id"),
		RaterID:   user.ID,
		Score:     req.Score,
		Comment:   req.Comment,
	}
	result, err := commands.Dispatch[ratingapp.SubmitRatingCommand, dto.Rating](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListForUser is public: anyone can read a user's received ratings.
func (h RatingHandler) ListForUser(c *gin.Context) {
	q := ratingapp.ListUserRatingsQuery{UserID: c.Param("id")}
	result, err := queries.Ask[ratingapp.ListUserRatingsQuery, dto.RatingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RatingHTTP = RatingHandler{}

package rating

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carpool/internal/app/commands"
	"carpool/internal/app/dto"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/outbox"
	"carpool/internal/app/uow"
	domainrating "carpool/internal/domain/rating"
)

const submitRatingKey = "rating.submit"

type SubmitRatingCommand struct {
	BookingID string
	RaterID   string
	Score     int
	Comment   string
}

func (c SubmitRatingCommand) Key() string { return submitRatingKey }

func (c SubmitRatingCommand) Validate() error {
	if c.Score < 1 || c.Score > 5 {
		return domainrating.ErrInvalidScore
	}
	return nil
}

// SubmitRatingHandler re-runs the eligibility checks inside the write
// transaction before persisting, closing the race between a standalone
// eligibility check and the submit.
type SubmitRatingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SubmitRatingHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) (dto.Rating, error) {
	wu, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rating{}, err
	}
	ctx = wu.Ctx
	defer wu.Close(ctx)
	unit := wu.Unit

	b, counterparty, err := evaluate(ctx, unit, cmd.BookingID, cmd.RaterID)
	if err != nil {
		return dto.Rating{}, err
	}

	r, err := domainrating.Submit(domainrating.SubmitParams{
		ID:        domainrating.RatingID(uuid.NewString()),
		BookingID: b.ID,
		RaterID:   cmd.RaterID,
		RatedID:   counterparty,
		Score:     cmd.Score,
		Comment:   cmd.Comment,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return dto.Rating{}, err
	}
	if err := unit.Ratings().Save(ctx, r); err != nil {
		return dto.Rating{}, err
	}
	if err := handlersupport.DrainEvents(ctx, h.Outbox, h.encoder(), r); err != nil {
		return dto.Rating{}, err
	}
	if err := wu.Commit(ctx); err != nil {
		return dto.Rating{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("rating submitted", "rating_id", r.ID, "booking_id", r.BookingID, "score", r.Score)
	}
	return dto.MapRating(r), nil
}

func (h *SubmitRatingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SubmitRatingCommand, dto.Rating] = (*SubmitRatingHandler)(nil)

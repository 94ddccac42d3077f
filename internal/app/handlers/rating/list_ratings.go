package rating

import (
	"context"
	"sort"

	"carpool/internal/app/dto"
	handlersupport "carpool/internal/app/handlers/support"
	"carpool/internal/app/queries"
	"carpool/internal/app/uow"
	domainrating "carpool/internal/domain/rating"
)

const listUserRatingsKey = "rating.list.user"

// ListUserRatingsQuery returns the ratings a user has received, newest first,
// with the aggregate summary.
type ListUserRatingsQuery struct {
	UserID string
}

func (q ListUserRatingsQuery) Key() string { return listUserRatingsKey }

type ListUserRatingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUserRatingsHandler) Handle(ctx context.Context, q ListUserRatingsQuery) (dto.RatingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RatingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	ratings, err := unit.Ratings().ListByRated(execCtx, q.UserID)
	if err != nil {
		return dto.RatingCollection{}, err
	}
	summary := domainrating.Summarize(ratings)
	items := make([]dto.Rating, 0, len(ratings))
	for _, r := range ratings {
		items = append(items, dto.MapRating(r))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.RatingCollection{Items: items, Count: summary.Count, Average: summary.Average}, nil
}

var _ queries.Handler[ListUserRatingsQuery, dto.RatingCollection] = (*ListUserRatingsHandler)(nil)

// Package rankingservice serves the leaderboard.
package rankingservice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/coursetutor/backend/httpapi"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/ranking"
	"github.com/coursetutor/backend/internal/scope"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("coursetutor.httpapi.ranking")

type RankingService struct {
	ranking *ranking.Service
}

func NewRankingService(r *ranking.Service) *RankingService {
	return &RankingService{ranking: r}
}

func (s *RankingService) Register(router gin.IRouter) {
	router.GET("/ranking", auth.RequireScope(scope.RankingRead), s.GetRanking)
}

type RankingResponse struct {
	By      ranking.By      `json:"by"`
	Period  ranking.Period  `json:"period"`
	Total   int             `json:"total"`
	Entries []ranking.Entry `json:"entries"`
}

// GetRanking returns a page of the leaderboard.
// GET /api/ranking?by=points&period=weekly&limit=10&offset=0
func (s *RankingService) GetRanking(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetRanking")
	defer span.End()

	filter := ranking.Filter{
		By:     ranking.By(c.DefaultQuery("by", string(ranking.ByPoints))),
		Period: ranking.Period(c.DefaultQuery("period", string(ranking.PeriodWeekly))),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		httputils.BadRequest(c, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		httputils.BadRequest(c, err)
		return
	}

	entries, total, err := s.ranking.GetRanking(ctx, filter)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidBy) || errors.Is(err, ranking.ErrInvalidPeriod) {
			httputils.BadRequest(c, err)
			return
		}

		span.RecordError(err)
		httputils.Error(c, http.StatusInternalServerError, "failed to get ranking", err)
		return
	}
	if entries == nil {
		entries = []ranking.Entry{}
	}

	c.JSON(http.StatusOK, RankingResponse{
		By:      filter.By,
		Period:  filter.Period,
		Total:   total,
		Entries: entries,
	})
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}

	return n, nil
}

var _ httpapi.Service = (*RankingService)(nil)

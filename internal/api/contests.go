package api

import (
	"fmt"
	"net/http"

	"github.com/judgehub/judgehub"
	"github.com/judgehub/judgehub/internal/ranklist"
)

// ContestsHandler exposes the global scoreboard. Only contest 0, the
// implicit global contest, exists.
type ContestsHandler struct {
	rank *ranklist.Aggregator
}

// NewContestsHandler builds a ContestsHandler.
func NewContestsHandler(rank *ranklist.Aggregator) *ContestsHandler {
	return &ContestsHandler{rank: rank}
}

func (h *ContestsHandler) Routes(r judgehub.Router) {
	r.GET("/contests/{contest_id}/ranklist", h.ranklist)
}

func (h *ContestsHandler) ranklist(c judgehub.Context) error {
	contestID, err := parseUint32(c.Param("contest_id"))
	if err != nil || contestID != 0 {
		return c.Error(judgehub.ReasonNotFound, fmt.Sprintf("contest %s not found", c.Param("contest_id")))
	}

	rule, err := ranklist.ParseScoringRule(c.Query("scoring_rule"))
	if err != nil {
		return c.Error(judgehub.ReasonInvalidArgument, err.Error())
	}
	tie, err := ranklist.ParseTieBreaker(c.Query("tie_breaker"))
	if err != nil {
		return c.Error(judgehub.ReasonInvalidArgument, err.Error())
	}

	entries, err := h.rank.Get(c, rule, tie)
	if err != nil {
		return c.Error(judgehub.ReasonExternal, "failed to compute ranklist", judgehub.WithError(err))
	}

	return c.JSON(http.StatusOK, toRanklistResponse(entries))
}

package rounds

import (
	"fmt"
	"sort"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// NextStage picks the stage for a new round: the first stage when the startup
// has no rounds, otherwise the successor of the stage of the round that ends
// last.
func NextStage(existing []models.FundingRound, seq models.StageSequence) (models.FundingStage, error) {
	if len(seq) == 0 {
		return "", fmt.Errorf("empty stage sequence")
	}
	if len(existing) == 0 {
		return seq.First(), nil
	}

	ordered := make([]*models.FundingRound, len(existing))
	for i := range existing {
		ordered[i] = &existing[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EndDate.Before(ordered[j].EndDate)
	})
	last := ordered[len(ordered)-1].Stage

	next, ok, err := seq.Next(last)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(CodeStageExhausted,
			"Unable to add new round for this startup because all rounds have been already created",
			map[string]interface{}{"last_stage": last})
	}
	return next, nil
}

package models

import "fmt"

type FundingStage string

const (
	StageSeed    FundingStage = "SEED"
	StageSeriesA FundingStage = "SERIES_A"
	StageSeriesB FundingStage = "SERIES_B"
	StageSeriesC FundingStage = "SERIES_C"
	StageSeriesD FundingStage = "SERIES_D"
)

// StageSequence is the ordered list of stages a startup moves through, one
// round per stage.
type StageSequence []FundingStage

// DefaultStages is used unless configuration overrides it.
var DefaultStages = StageSequence{StageSeed, StageSeriesA, StageSeriesB, StageSeriesC, StageSeriesD}

// Index returns the position of s in the sequence or -1.
func (seq StageSequence) Index(s FundingStage) int {
	for i, v := range seq {
		if v == s {
			return i
		}
	}
	return -1
}

func (seq StageSequence) First() FundingStage {
	if len(seq) == 0 {
		return ""
	}
	return seq[0]
}

// Next returns the stage following s. ok is false when s is the last stage.
func (seq StageSequence) Next(s FundingStage) (next FundingStage, ok bool, err error) {
	i := seq.Index(s)
	if i < 0 {
		return "", false, fmt.Errorf("unknown funding stage %q", s)
	}
	if i == len(seq)-1 {
		return "", false, nil
	}
	return seq[i+1], true, nil
}

// ParseStageSequence builds a sequence from configuration values, rejecting
// empty entries and duplicates.
func ParseStageSequence(values []string) (StageSequence, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("stage sequence is empty")
	}
	seen := make(map[string]struct{}, len(values))
	seq := make(StageSequence, 0, len(values))
	for _, v := range values {
		if v == "" {
			return nil, fmt.Errorf("stage sequence contains an empty stage")
		}
		if _, ok := seen[v]; ok {
			return nil, fmt.Errorf("stage %q listed twice", v)
		}
		seen[v] = struct{}{}
		seq = append(seq, FundingStage(v))
	}
	return seq, nil
}

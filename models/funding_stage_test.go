package models

import "testing"

func TestStageSequenceNext(t *testing.T) {
	next, ok, err := DefaultStages.Next(StageSeed)
	if err != nil || !ok || next != StageSeriesA {
		t.Fatalf("Next(SEED) = %s, %v, %v", next, ok, err)
	}
	if _, ok, err := DefaultStages.Next(StageSeriesD); ok || err != nil {
		t.Fatalf("Next(SERIES_D) ok=%v err=%v", ok, err)
	}
	if _, _, err := DefaultStages.Next("IPO"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
	if DefaultStages.First() != StageSeed {
		t.Fatalf("First() = %s", DefaultStages.First())
	}
}

func TestParseStageSequence(t *testing.T) {
	seq, err := ParseStageSequence([]string{"PRE_SEED", "SEED", "SERIES_A"})
	if err != nil {
		t.Fatal(err)
	}
	if seq.Index("SEED") != 1 || seq.Index("SERIES_B") != -1 {
		t.Fatalf("unexpected sequence %v", seq)
	}
	for _, bad := range [][]string{nil, {"SEED", ""}, {"SEED", "SEED"}} {
		if _, err := ParseStageSequence(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

package market

import (
	"testing"

	"DepthView/internal/domain/models"
)

func TestOpenInterestAppendIgnoresNonIncreasingTime(t *testing.T) {
	s := NewOpenInterestSeries()

	if !s.Append(models.OpenInterestPoint{Time: 1000, Value: 5}) {
		t.Fatal("first append should succeed")
	}
	if s.Append(models.OpenInterestPoint{Time: 1000, Value: 6}) {
		t.Fatal("duplicate time must be ignored")
	}
	if s.Append(models.OpenInterestPoint{Time: 500, Value: 4}) {
		t.Fatal("older time must be ignored")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", s.Len())
	}
}

func TestOpenInterestSeedMergesSortedUnique(t *testing.T) {
	s := NewOpenInterestSeries()
	s.Append(models.OpenInterestPoint{Time: 3000, Value: 3})

	s.Seed([]models.OpenInterestPoint{
		{Time: 2000, Value: 2},
		{Time: 1000, Value: 1},
		{Time: 3000, Value: 99}, // existing point wins
	})

	got := s.Range(0, 5000)
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("series not strictly increasing: %+v", got)
		}
	}
	if got[2].Value != 3 {
		t.Fatalf("existing point must win over backfill, got %+v", got[2])
	}
}

func TestOpenInterestRange(t *testing.T) {
	s := NewOpenInterestSeries()
	s.Seed([]models.OpenInterestPoint{
		{Time: 1000, Value: 1},
		{Time: 2000, Value: 2},
		{Time: 3000, Value: 3},
	})

	got := s.Range(1500, 2500)
	if len(got) != 1 || got[0].Time != 2000 {
		t.Fatalf("unexpected range result %+v", got)
	}
}

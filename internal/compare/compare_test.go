package compare

import (
	"testing"

	"github.com/FranksOps/seoscope/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scores(content, brand, visibility, trust int) scoring.DetailedScores {
	return scoring.DetailedScores{
		Total:             scoring.Total(content, brand, visibility, trust),
		ContentStructure:  content,
		BrandRanking:      brand,
		KeywordVisibility: visibility,
		AITrust:           trust,
	}
}

func TestCompare(t *testing.T) {
	target := scores(20, 10, 8, 15) // 53
	a := scores(25, 15, 10, 20)     // 70
	b := scores(18, 12, 5, 10)      // 45
	c := scores(22, 9, 12, 18)      // 61

	res := Compare(target, []scoring.DetailedScores{a, b, c})

	assert.Equal(t, 3, res.Rank)
	assert.Equal(t, 4, res.Of)
	assert.Equal(t, 58.7, res.AvgCompetitorScore)
	require.Len(t, res.Gaps, 4)

	assert.Equal(t, scoring.PillarContentStructure, res.Gaps[0].Pillar)
	assert.Equal(t, 21.7, res.Gaps[0].CompetitorAvg)
	assert.Equal(t, 1.7, res.Gaps[0].Gap)
	assert.Equal(t, 2.0, res.Gaps[1].Gap)
	assert.Equal(t, 1.0, res.Gaps[2].Gap)
	assert.Equal(t, 1.0, res.Gaps[3].Gap)

	largest, ok := res.Largest()
	require.True(t, ok)
	assert.Equal(t, scoring.PillarBrandRanking, largest.Pillar)
}

func TestCompare_NegativeGapWhenTargetLeads(t *testing.T) {
	res := Compare(scores(30, 20, 15, 20), []scoring.DetailedScores{scores(10, 10, 10, 10)})

	assert.Equal(t, 1, res.Rank)
	assert.Equal(t, -20.0, res.Gaps[0].Gap)
	_, ok := res.Largest()
	assert.False(t, ok)
}

func TestCompare_TiesKeepTargetFirst(t *testing.T) {
	target := scores(20, 10, 10, 10)
	res := Compare(target, []scoring.DetailedScores{scores(10, 20, 10, 10), scores(30, 20, 10, 10)})
	assert.Equal(t, 2, res.Rank)
}

func TestCompare_NoCompetitors(t *testing.T) {
	res := Compare(scores(20, 10, 10, 10), nil)

	assert.Equal(t, 1, res.Rank)
	assert.Equal(t, 1, res.Of)
	assert.Zero(t, res.AvgCompetitorScore)
	assert.NotNil(t, res.Gaps)
	assert.Empty(t, res.Gaps)
}

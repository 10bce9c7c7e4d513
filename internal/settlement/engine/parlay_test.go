package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parlayWith(statuses ...Status) Parlay {
	p := Parlay{
		ID:          "parlay-1",
		UserID:      "user-1",
		StakeCents:  10000,
		PayoutCents: 60000,
		Status:      StatusPending,
	}
	for i, st := range statuses {
		p.Legs = append(p.Legs, Leg{
			ID:       "leg-" + string(rune('a'+i)),
			ParlayID: p.ID,
			Position: i,
			Kind:     KindMoneyline,
			Odds:     150,
			Status:   st,
		})
	}
	return p
}

func TestAggregateAnyLostLegLosesParlay(t *testing.T) {
	out, err := AggregateParlay(parlayWith(StatusLost, StatusWon, StatusWon))
	require.NoError(t, err)
	assert.Equal(t, StatusLost, out.Status)
	assert.Equal(t, int64(0), out.AmountCents)
}

func TestAggregateAllPushedReturnsExactStake(t *testing.T) {
	out, err := AggregateParlay(parlayWith(StatusPushed, StatusPushed))
	require.NoError(t, err)
	assert.Equal(t, StatusPushed, out.Status)
	assert.Equal(t, int64(10000), out.AmountCents)
}

func TestAggregateAllWonPaysFullPayout(t *testing.T) {
	out, err := AggregateParlay(parlayWith(StatusWon, StatusWon, StatusWon))
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, int64(10000+60000), out.AmountCents)
}

func TestAggregateSingleSurvivingLegUsesItsOwnOdds(t *testing.T) {
	p := parlayWith(StatusPushed, StatusWon, StatusPushed)
	p.Legs[1].Odds = -200

	out, err := AggregateParlay(p)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	// aposta simples de 100 a -200: lucro 50
	assert.Equal(t, int64(10000+5000), out.AmountCents)
}

func TestAggregateScalesPayoutByWinningLegRatio(t *testing.T) {
	// 2 vitórias em 3 pernas: lucro original 600 vira 400
	out, err := AggregateParlay(parlayWith(StatusWon, StatusPushed, StatusWon))
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, int64(10000+40000), out.AmountCents)
	assert.Contains(t, out.Reason, "2/3")
}

func TestAggregateCancelledLegActsAsPush(t *testing.T) {
	out, err := AggregateParlay(parlayWith(StatusCancelled, StatusWon, StatusWon))
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, int64(10000+40000), out.AmountCents)

	out, err = AggregateParlay(parlayWith(StatusCancelled, StatusCancelled))
	require.NoError(t, err)
	assert.Equal(t, StatusPushed, out.Status)
	assert.Equal(t, int64(10000), out.AmountCents)
}

func TestAggregatePendingLegBlocks(t *testing.T) {
	_, err := AggregateParlay(parlayWith(StatusWon, StatusPending))
	assert.Error(t, err)
}

func TestAggregateEmptyParlay(t *testing.T) {
	_, err := AggregateParlay(Parlay{ID: "parlay-x"})
	assert.Error(t, err)
}

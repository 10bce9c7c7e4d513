package valuer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
)

func liveBet() engine.StraightBet {
	return engine.StraightBet{
		ID:         "bet-live-1",
		GameID:     "game-1",
		Kind:       engine.KindLive,
		Selection:  "Home Team",
		Odds:       100,
		StakeCents: 10000,
		Status:     engine.StatusPending,
	}
}

func state(home, away, period int) GameState {
	return GameState{
		GameID:       "game-1",
		HomeTeam:     "Home Team",
		AwayTeam:     "Away Team",
		HomeScore:    home,
		AwayScore:    away,
		Period:       period,
		TotalPeriods: 4,
	}
}

func TestValueBaselineAtLevelScore(t *testing.T) {
	got, err := New().Value(liveBet(), state(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got, "jogo zerado vale o stake")
}

func TestValueRewardAndPenaltySlopes(t *testing.T) {
	v := New()

	ahead, err := v.Value(liveBet(), state(7, 0, 2))
	require.NoError(t, err)
	behind, err := v.Value(liveBet(), state(0, 7, 2))
	require.NoError(t, err)

	// 7 pontos a favor: 10000 + 10000*0.08*7 = 15600
	assert.Equal(t, int64(15600), ahead)
	// 7 pontos contra: 10000 - 10000*0.05*7 = 6500
	assert.Equal(t, int64(6500), behind)

	// inclinação de recompensa maior que a de penalidade
	assert.Greater(t, ahead-10000, int64(10000)-behind)
}

func TestValueLateGameMultiplier(t *testing.T) {
	v := New()

	early, err := v.Value(liveBet(), state(7, 0, 2))
	require.NoError(t, err)
	late, err := v.Value(liveBet(), state(7, 0, 4))
	require.NoError(t, err)

	assert.Greater(t, late, early)
	// 10000 + 5600*1.5 = 18400
	assert.Equal(t, int64(18400), late)
}

func TestValueClampedToCapAndZero(t *testing.T) {
	v := New()

	// liderança enorme: teto em 0.95 × retorno cheio (20000)
	capped, err := v.Value(liveBet(), state(60, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(19000), capped)

	// desvantagem enorme: nunca negativo
	floored, err := v.Value(liveBet(), state(0, 60, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(0), floored)
}

// Duas leituras seguidas sem mudança de estado têm que concordar dentro do
// epsilon (a função é pura, então concordam exatamente).
func TestValueDeterministic(t *testing.T) {
	v := New()
	st := state(14, 10, 3)

	first, err := v.Value(liveBet(), st)
	require.NoError(t, err)
	second, err := v.Value(liveBet(), st)
	require.NoError(t, err)

	assert.False(t, Stale(first, second))
	assert.Equal(t, first, second)
}

func TestStale(t *testing.T) {
	assert.False(t, Stale(10000, 10000))
	assert.False(t, Stale(10000, 10001), "um centavo de diferença ainda vale")
	assert.True(t, Stale(10000, 10002))
	assert.True(t, Stale(10002, 10000))
}

func TestValueUnparseableSelection(t *testing.T) {
	b := liveBet()
	b.Selection = "Some Other Team"
	_, err := New().Value(b, state(7, 0, 2))
	assert.Error(t, err)
}

func TestValueSpreadBetUsesAdjustedMargin(t *testing.T) {
	b := liveBet()
	b.Kind = engine.KindSpread
	b.Selection = "Away Team +10.5"

	// away 0 + 10.5 - 7 = margem 3.5 a favor
	got, err := New().Value(b, state(7, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(10000+2800), got)
}

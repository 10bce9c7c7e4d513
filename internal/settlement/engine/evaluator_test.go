package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jogo de referência: Home Team 24 x 17 Away Team
func finalResult() GameResult {
	return GameResult{
		GameID:    "game-1",
		HomeTeam:  "Home Team",
		AwayTeam:  "Away Team",
		HomeScore: 24,
		AwayScore: 17,
		Completed: true,
	}
}

func straight(kind Kind, selection string) StraightBet {
	return StraightBet{
		ID:         "bet-1",
		GameID:     "game-1",
		Kind:       kind,
		Selection:  selection,
		Odds:       -110,
		StakeCents: 10000,
		Status:     StatusPending,
	}
}

func TestEvaluateMoneyline(t *testing.T) {
	tests := []struct {
		name       string
		selection  string
		wantStatus Status
		wantAmount int64
	}{
		{"home wins", "Home Team", StatusWon, 10000 + 9091},
		{"away loses", "Away Team", StatusLost, 0},
		{"case insensitive", "home team", StatusWon, 10000 + 9091},
		{"substring match", "Home", StatusWon, 10000 + 9091},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(straight(KindMoneyline, tt.selection), finalResult())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantAmount, out.AmountCents)
		})
	}
}

func TestEvaluateMoneylineTiePushes(t *testing.T) {
	res := finalResult()
	res.AwayScore = 24

	out, err := Evaluate(straight(KindMoneyline, "Home Team"), res)
	require.NoError(t, err)
	assert.Equal(t, StatusPushed, out.Status)
	assert.Equal(t, int64(10000), out.AmountCents, "push devolve o stake")
}

func TestEvaluateSpread(t *testing.T) {
	tests := []struct {
		name       string
		selection  string
		wantStatus Status
	}{
		// away 17 + 3.5 = 20.5 < 24
		{"away plus loses", "Away Team +3.5", StatusLost},
		// home 24 - 3.5 = 20.5 > 17
		{"home minus wins", "Home Team -3.5", StatusWon},
		// home 24 - 7 = 17 == 17
		{"exact line pushes", "Home Team -7", StatusPushed},
		{"away big dog wins", "Away Team +10.5", StatusWon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(straight(KindSpread, tt.selection), finalResult())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
		})
	}
}

func TestEvaluateSpreadDigitTeamNames(t *testing.T) {
	// San Francisco 49ers 17 x 24 Philadelphia 76ers: os dígitos do nome
	// nunca podem ser lidos como linha de spread
	res := GameResult{
		GameID:    "game-2",
		HomeTeam:  "San Francisco 49ers",
		AwayTeam:  "Philadelphia 76ers",
		HomeScore: 17,
		AwayScore: 24,
		Completed: true,
	}
	bet := func(selection string) StraightBet {
		b := straight(KindSpread, selection)
		b.GameID = "game-2"
		return b
	}

	t.Run("home favorite loses", func(t *testing.T) {
		// 17 - 3.5 = 13.5 < 24
		out, err := Evaluate(bet("San Francisco 49ers -3.5"), res)
		require.NoError(t, err)
		assert.Equal(t, StatusLost, out.Status)
		assert.Equal(t, int64(0), out.AmountCents)
	})
	t.Run("away favorite wins", func(t *testing.T) {
		// 24 - 3.5 = 20.5 > 17
		out, err := Evaluate(bet("Philadelphia 76ers -3.5"), res)
		require.NoError(t, err)
		assert.Equal(t, StatusWon, out.Status)
	})
	t.Run("unsigned number is not a line", func(t *testing.T) {
		out, err := Evaluate(bet("San Francisco 49ers 3.5"), res)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, out.Status)
		assert.Equal(t, int64(10000), out.AmountCents)
	})
}

func TestEvaluateTotal(t *testing.T) {
	// total do jogo: 41
	tests := []struct {
		name       string
		selection  string
		wantStatus Status
	}{
		{"over misses", "Over 45.5", StatusLost},
		{"under hits", "Under 45.5", StatusWon},
		{"over hits", "Over 38.5", StatusWon},
		{"exact total pushes", "Over 41", StatusPushed},
		{"under exact pushes", "Under 41", StatusPushed},
		// a linha vem depois da palavra-chave; "49ers" antes dela é ignorado
		{"digit team name before keyword", "49ers vs 76ers Over 45.5", StatusLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(straight(KindTotal, tt.selection), finalResult())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
		})
	}
}

func TestEvaluateLiveGradesAsMoneyline(t *testing.T) {
	out, err := Evaluate(straight(KindLive, "Home Team"), finalResult())
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
}

func TestEvaluateUnresolvableCancelsWithRefund(t *testing.T) {
	tests := []struct {
		name string
		bet  StraightBet
	}{
		{"unknown team", straight(KindMoneyline, "Some Other Team")},
		{"ambiguous team", straight(KindMoneyline, "Team")},
		{"spread without number", straight(KindSpread, "Home Team")},
		{"total without direction", straight(KindTotal, "45.5")},
		{"prop bet", straight(KindProp, "first touchdown scorer")},
		{"zero odds", func() StraightBet {
			b := straight(KindMoneyline, "Home Team")
			b.Odds = 0
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(tt.bet, finalResult())
			require.NoError(t, err, "falha de parsing nunca pode derrubar o lote")
			assert.Equal(t, StatusCancelled, out.Status)
			assert.Equal(t, tt.bet.StakeCents, out.AmountCents, "cancelamento devolve o stake")
			assert.NotEmpty(t, out.Reason)
		})
	}
}

func TestEvaluateDefersWhenGameNotFinal(t *testing.T) {
	res := finalResult()
	res.Completed = false

	_, err := Evaluate(straight(KindMoneyline, "Home Team"), res)
	assert.ErrorIs(t, err, ErrGameNotFinal)
}

func TestMarginSpreadZeroOddsStillCancelsNotLoses(t *testing.T) {
	// odd inválida numa aposta que teria ganho: tem que cancelar e devolver,
	// nunca marcar LOST
	b := straight(KindSpread, "Home Team -3.5")
	b.Odds = 0
	out, err := Evaluate(b, finalResult())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, out.Status)
	assert.Equal(t, b.StakeCents, out.AmountCents)
}

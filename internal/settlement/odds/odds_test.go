package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		american int
		want     float64
	}{
		{150, 2.5},
		{-150, 1.0 + 100.0/150.0},
		{100, 2.0},
		{-100, 2.0},
		{250, 3.5},
		{-500, 1.2},
	}
	for _, tt := range tests {
		got, err := Decimal(tt.american)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 0.0001, "american %d", tt.american)
	}
}

func TestDecimalZeroOdds(t *testing.T) {
	_, err := Decimal(0)
	assert.ErrorIs(t, err, ErrInvalidOdds)

	_, err = PayoutCents(10000, 0)
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestPayoutCents(t *testing.T) {
	tests := []struct {
		stake    int64
		american int
		want     int64
	}{
		{10000, 150, 15000},  // +150: aposta 100 lucra 150
		{10000, -150, 6667},  // -150: aposta 100 lucra 66.67
		{10000, 100, 10000},  // even money
		{10000, -110, 9091},  // linha padrão de spread
		{2500, -200, 1250},
		{1, 150, 2},          // arredonda 1.5 pra cima
	}
	for _, tt := range tests {
		got, err := PayoutCents(tt.stake, tt.american)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "stake %d american %d", tt.stake, tt.american)
	}
}

func TestPayoutAlwaysPositive(t *testing.T) {
	for _, american := range []int{-10000, -550, -110, -101, 100, 101, 110, 550, 10000} {
		got, err := PayoutCents(100, american)
		require.NoError(t, err)
		assert.Greater(t, got, int64(0), "american %d", american)
	}
}

// toAmerican(decimal(o)) deve voltar pra odd original com tolerância de ±1.
func TestRoundTrip(t *testing.T) {
	for american := -2000; american <= 2000; american++ {
		// a faixa (-100, 100) não existe na cotação americana;
		// -100 e +100 viram o mesmo decimal 2.0, e a volta escolhe +100
		if american > -101 && american < 100 {
			continue
		}
		dec, err := Decimal(american)
		require.NoError(t, err)
		back, err := ToAmerican(dec)
		require.NoError(t, err)
		assert.InDelta(t, american, back, 1, "american %d decimal %f", american, dec)
	}
}

func TestToAmericanInvalid(t *testing.T) {
	for _, dec := range []float64{0, 0.5, 1.0} {
		_, err := ToAmerican(dec)
		assert.ErrorIs(t, err, ErrInvalidOdds, "decimal %f", dec)
	}
}

package offers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/valuer"
)

// Offer é a oferta efêmera de cash-out. Recalculada a cada requisição e
// guardada só pela janela de validade; nunca vira registro permanente.
type Offer struct {
	BetID           string    `json:"betId"`
	StakeCents      int64     `json:"stake_cents"`
	FullWinCents    int64     `json:"full_win_cents"`
	ValueCents      int64     `json:"value_cents"`
	ProfitLossCents int64     `json:"profit_loss_cents"`
	ExpiresAt       time.Time `json:"expires_at"`
	Available       bool      `json:"available"`
}

// Cache guarda ofertas e estado ao vivo com TTL curto. A instância pertence
// ao serviço de cash-out; nada aqui é global de processo.
type Cache struct {
	Client   *redis.Client
	OfferTTL time.Duration
	LiveTTL  time.Duration
}

func NewCache(c *redis.Client, offerTTL, liveTTL time.Duration) *Cache {
	return &Cache{Client: c, OfferTTL: offerTTL, LiveTTL: liveTTL}
}

func keyOffer(betID string) string { return "cashout:offer:" + betID }
func keyLive(gameID string) string { return "cashout:live:" + gameID }

func (c *Cache) GetOffer(ctx context.Context, betID string) (Offer, bool, error) {
	b, err := c.Client.Get(ctx, keyOffer(betID)).Bytes()
	if err == redis.Nil {
		return Offer{}, false, nil
	}
	if err != nil {
		return Offer{}, false, err
	}
	var o Offer
	if err := json.Unmarshal(b, &o); err != nil {
		return Offer{}, false, err
	}
	return o, true, nil
}

func (c *Cache) SetOffer(ctx context.Context, o Offer) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, keyOffer(o.BetID), b, c.OfferTTL).Err()
}

func (c *Cache) GetLive(ctx context.Context, gameID string) (valuer.GameState, bool, error) {
	b, err := c.Client.Get(ctx, keyLive(gameID)).Bytes()
	if err == redis.Nil {
		return valuer.GameState{}, false, nil
	}
	if err != nil {
		return valuer.GameState{}, false, err
	}
	var st valuer.GameState
	if err := json.Unmarshal(b, &st); err != nil {
		return valuer.GameState{}, false, err
	}
	return st, true, nil
}

func (c *Cache) SetLive(ctx context.Context, st valuer.GameState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, keyLive(st.GameID), b, c.LiveTTL).Err()
}

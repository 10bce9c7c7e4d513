package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/dto"
	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/offers"
	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/valuer"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/store"
	"github.com/radieske/sports-bet-settlement-poc/pkg/contracts/events"
)

// BetStore é o recorte de persistência que o cash-out precisa.
type BetStore interface {
	GetStraight(ctx context.Context, betID string) (engine.StraightBet, error)
	CashOutConditional(ctx context.Context, betID string, valueCents int64) (bool, error)
	AppendHistory(ctx context.Context, rec store.HistoryRecord) error
}

// LiveSource entrega o estado ao vivo de um jogo.
type LiveSource interface {
	LiveState(ctx context.Context, gameID string) (valuer.GameState, bool, error)
}

// OfferCache é o cache TTL de ofertas e estado ao vivo, de propriedade do
// serviço (nunca um global de processo).
type OfferCache interface {
	GetOffer(ctx context.Context, betID string) (offers.Offer, bool, error)
	SetOffer(ctx context.Context, o offers.Offer) error
	GetLive(ctx context.Context, gameID string) (valuer.GameState, bool, error)
	SetLive(ctx context.Context, st valuer.GameState) error
}

type Notifier interface {
	NotifySettled(ctx context.Context, e events.BetSettled) error
}

// Server expõe a API de cash-out: consulta de oferta e aceite.
type Server struct {
	log      *zap.Logger
	store    BetStore
	live     LiveSource
	valuer   *valuer.Valuer
	cache    OfferCache
	notif    Notifier
	offerTTL time.Duration

	OnOffer  func(result string) // métricas
	OnAccept func(result string)
}

func NewServer(log *zap.Logger, st BetStore, live LiveSource, v *valuer.Valuer, cache OfferCache, n Notifier, offerTTL time.Duration) *Server {
	return &Server{log: log, store: st, live: live, valuer: v, cache: cache, notif: n, offerTTL: offerTTL}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/bets/{id}/cashout", s.getOffer)
	r.Post("/v1/bets/{id}/cashout/accept", s.acceptOffer)
	return r
}

// quote recalcula a oferta corrente de uma aposta. Retorna available=false
// com motivo quando a aposta não pode ser precificada agora.
func (s *Server) quote(ctx context.Context, betID string) (engine.StraightBet, offers.Offer, bool) {
	bet, err := s.store.GetStraight(ctx, betID)
	if err != nil {
		return engine.StraightBet{}, offers.Offer{}, false
	}

	unavailable := func() (engine.StraightBet, offers.Offer, bool) {
		return bet, offers.Offer{BetID: bet.ID, Available: false}, true
	}

	if bet.Kind != engine.KindLive || bet.Status != engine.StatusPending {
		return unavailable()
	}

	// estado ao vivo: primeiro cache, depois a fonte
	st, ok, err := s.cache.GetLive(ctx, bet.GameID)
	if err != nil {
		s.log.Warn("live cache read", zap.Error(err))
		ok = false
	}
	if !ok {
		st, ok, err = s.live.LiveState(ctx, bet.GameID)
		if err != nil || !ok {
			if err != nil {
				s.log.Warn("live state fetch", zap.String("gameId", bet.GameID), zap.Error(err))
			}
			return unavailable()
		}
		if err := s.cache.SetLive(ctx, st); err != nil {
			s.log.Warn("live cache write", zap.Error(err))
		}
	}

	value, err := s.valuer.Value(bet, st)
	if err != nil {
		s.log.Warn("cashout valuation", zap.String("betId", bet.ID), zap.Error(err))
		return unavailable()
	}

	fullWin := bet.StakeCents + bet.PayoutCents
	return bet, offers.Offer{
		BetID:           bet.ID,
		StakeCents:      bet.StakeCents,
		FullWinCents:    fullWin,
		ValueCents:      value,
		ProfitLossCents: value - bet.StakeCents,
		ExpiresAt:       time.Now().Add(s.offerTTL),
		Available:       true,
	}, true
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	// oferta ainda dentro da janela é servida do cache sem recomputar; o
	// aceite sempre revalida contra um valor fresco
	if cached, ok, err := s.cache.GetOffer(r.Context(), betID); err == nil && ok &&
		cached.Available && time.Now().Before(cached.ExpiresAt) {
		if s.OnOffer != nil {
			s.OnOffer("cached")
		}
		writeJSON(w, http.StatusOK, dto.OfferResponse{
			BetID:           cached.BetID,
			Available:       true,
			StakeCents:      cached.StakeCents,
			FullWinCents:    cached.FullWinCents,
			ValueCents:      cached.ValueCents,
			ProfitLossCents: cached.ProfitLossCents,
			ExpiresAt:       cached.ExpiresAt,
		})
		return
	} else if err != nil {
		s.log.Warn("offer cache read", zap.Error(err))
	}

	_, offer, found := s.quote(r.Context(), betID)
	if !found {
		if s.OnOffer != nil {
			s.OnOffer("not_found")
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bet not found"})
		return
	}
	if !offer.Available {
		if s.OnOffer != nil {
			s.OnOffer("unavailable")
		}
		writeJSON(w, http.StatusOK, dto.OfferResponse{BetID: betID, Available: false, Reason: "cash-out unavailable"})
		return
	}

	if err := s.cache.SetOffer(r.Context(), offer); err != nil {
		s.log.Warn("offer cache write", zap.Error(err))
	}
	if s.OnOffer != nil {
		s.OnOffer("served")
	}
	writeJSON(w, http.StatusOK, dto.OfferResponse{
		BetID:           offer.BetID,
		Available:       true,
		StakeCents:      offer.StakeCents,
		FullWinCents:    offer.FullWinCents,
		ValueCents:      offer.ValueCents,
		ProfitLossCents: offer.ProfitLossCents,
		ExpiresAt:       offer.ExpiresAt,
	})
}

func (s *Server) acceptOffer(w http.ResponseWriter, r *http.Request) {
	betID := chi.URLParam(r, "id")

	var req dto.AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.ValueCents <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value_cents required"})
		return
	}

	bet, offer, found := s.quote(r.Context(), betID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bet not found"})
		return
	}
	if !offer.Available {
		if s.OnAccept != nil {
			s.OnAccept("unavailable")
		}
		writeJSON(w, http.StatusConflict, dto.OfferResponse{BetID: betID, Available: false, Reason: "cash-out unavailable"})
		return
	}

	// preço velho nunca é honrado: o valor aceito tem que bater com uma
	// recomputação fresca dentro do epsilon
	if valuer.Stale(req.ValueCents, offer.ValueCents) {
		if s.OnAccept != nil {
			s.OnAccept("stale")
		}
		writeJSON(w, http.StatusConflict, dto.OfferResponse{
			BetID:           offer.BetID,
			Available:       true,
			Reason:          "offer is stale; fresh value attached",
			StakeCents:      offer.StakeCents,
			FullWinCents:    offer.FullWinCents,
			ValueCents:      offer.ValueCents,
			ProfitLossCents: offer.ProfitLossCents,
			ExpiresAt:       offer.ExpiresAt,
		})
		return
	}

	ok, err := s.store.CashOutConditional(r.Context(), betID, req.ValueCents)
	if err != nil {
		s.log.Error("cashout update", zap.String("betId", betID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}
	if !ok {
		// liquidação chegou primeiro
		if s.OnAccept != nil {
			s.OnAccept("conflict")
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": "bet already settled"})
		return
	}

	if err := s.store.AppendHistory(r.Context(), store.HistoryRecord{
		BetID:       betID,
		OldStatus:   string(engine.StatusPending),
		NewStatus:   string(engine.StatusCashedOut),
		AmountCents: req.ValueCents,
		Reason:      "cash-out accepted",
	}); err != nil {
		s.log.Warn("append history", zap.String("betId", betID), zap.Error(err))
	}

	if s.notif != nil {
		if err := s.notif.NotifySettled(r.Context(), events.BetSettled{
			BetID:       betID,
			UserID:      bet.UserID,
			Status:      string(engine.StatusCashedOut),
			AmountCents: req.ValueCents,
			GameID:      bet.GameID,
		}); err != nil {
			s.log.Warn("notify cashout", zap.String("betId", betID), zap.Error(err))
		}
	}

	if s.OnAccept != nil {
		s.OnAccept("accepted")
	}
	writeJSON(w, http.StatusOK, dto.AcceptResponse{
		BetID:      betID,
		Status:     string(engine.StatusCashedOut),
		ValueCents: req.ValueCents,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

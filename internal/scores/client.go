package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/cashout/valuer"
	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
)

// Client consulta a API externa de placares. Só os placares finalizados
// interessam à liquidação; jogos em andamento ou agendados simplesmente não
// aparecem na resposta filtrada.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Log:     log,
	}
}

// formato do provedor: placares como lista nomeada por time, valores string
type scoreEntry struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

type gameScore struct {
	ID        string       `json:"id"`
	HomeTeam  string       `json:"home_team"`
	AwayTeam  string       `json:"away_team"`
	Completed bool         `json:"completed"`
	Scores    []scoreEntry `json:"scores"`
}

// FinalScores busca os jogos finalizados de um esporte dentro da janela de
// lookback. Resposta vazia ou parcial é tolerada: entradas sem os dois
// placares são descartadas, nunca adivinhadas.
func (c *Client) FinalScores(ctx context.Context, sport string, lookbackDays int) (map[string]engine.GameResult, error) {
	url := fmt.Sprintf("%s/v1/sports/%s/scores?daysFrom=%d", c.BaseURL, sport, lookbackDays)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scores for %s: %w", sport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scores api for %s: http %s", sport, resp.Status)
	}

	var games []gameScore
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("decode scores for %s: %w", sport, err)
	}

	out := make(map[string]engine.GameResult, len(games))
	for _, g := range games {
		if !g.Completed {
			continue
		}
		home, away, ok := pickScores(g)
		if !ok {
			c.Log.Warn("completed game missing scores, skipping",
				zap.String("gameId", g.ID), zap.String("sport", sport))
			continue
		}
		out[g.ID] = engine.GameResult{
			GameID:    g.ID,
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			HomeScore: home,
			AwayScore: away,
			Completed: true,
		}
	}
	return out, nil
}

// pickScores resolve os placares nomeados contra home/away do jogo.
func pickScores(g gameScore) (home, away int, ok bool) {
	var haveHome, haveAway bool
	for _, s := range g.Scores {
		n, err := strconv.Atoi(s.Score)
		if err != nil {
			continue
		}
		switch s.Name {
		case g.HomeTeam:
			home, haveHome = n, true
		case g.AwayTeam:
			away, haveAway = n, true
		}
	}
	return home, away, haveHome && haveAway
}

type liveState struct {
	GameID       string `json:"game_id"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	HomeScore    int    `json:"home_score"`
	AwayScore    int    `json:"away_score"`
	Period       int    `json:"period"`
	TotalPeriods int    `json:"total_periods"`
}

// LiveState busca o estado ao vivo de um jogo pra precificação de cash-out.
// ok=false quando o jogo não está em andamento.
func (c *Client) LiveState(ctx context.Context, gameID string) (valuer.GameState, bool, error) {
	url := fmt.Sprintf("%s/v1/games/%s/live", c.BaseURL, gameID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return valuer.GameState{}, false, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return valuer.GameState{}, false, fmt.Errorf("fetch live state for %s: %w", gameID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return valuer.GameState{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return valuer.GameState{}, false, fmt.Errorf("live api for %s: http %s", gameID, resp.Status)
	}

	var ls liveState
	if err := json.NewDecoder(resp.Body).Decode(&ls); err != nil {
		return valuer.GameState{}, false, fmt.Errorf("decode live state for %s: %w", gameID, err)
	}
	return valuer.GameState{
		GameID:       ls.GameID,
		HomeTeam:     ls.HomeTeam,
		AwayTeam:     ls.AwayTeam,
		HomeScore:    ls.HomeScore,
		AwayScore:    ls.AwayScore,
		Period:       ls.Period,
		TotalPeriods: ls.TotalPeriods,
	}, true, nil
}

package trigger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
)

type fakePending struct {
	ids     []string
	gotExcl []string
	err     error
}

func (f *fakePending) PendingGameIDs(_ context.Context, exclude []string) ([]string, error) {
	f.gotExcl = exclude
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	skip := map[string]struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, id := range f.ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeScores struct {
	results map[string]engine.GameResult
	err     error
	calls   int
}

func (f *fakeScores) FinalScores(context.Context, string, int) (map[string]engine.GameResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeSettler struct {
	mu    sync.Mutex
	games []string
	err   error
}

func (f *fakeSettler) RunForGame(_ context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, gameID)
	return f.err
}

type memRecent struct {
	seen map[string]struct{}
}

func newMemRecent() *memRecent { return &memRecent{seen: map[string]struct{}{}} }

func (m *memRecent) Known(context.Context) ([]string, error) {
	var out []string
	for id := range m.seen {
		out = append(out, id)
	}
	return out, nil
}

func (m *memRecent) Mark(_ context.Context, gameID string) error {
	m.seen[gameID] = struct{}{}
	return nil
}

func final(id string) engine.GameResult {
	return engine.GameResult{GameID: id, HomeTeam: "H", AwayTeam: "A", HomeScore: 1, Completed: true}
}

func newTrigger(p PendingSource, s ScoreSource, st Settler, r RecentFinals) *Trigger {
	return &Trigger{
		Log:          zap.NewNop(),
		Pending:      p,
		Scores:       s,
		Settler:      st,
		Recent:       r,
		Interval:     time.Minute,
		Sports:       []string{"nfl"},
		LookbackDays: 1,
	}
}

func TestSweepTriggersScopedSettlementOnNewlyFinalGame(t *testing.T) {
	pending := &fakePending{ids: []string{"game-1", "game-2"}}
	scores := &fakeScores{results: map[string]engine.GameResult{"game-1": final("game-1")}}
	settler := &fakeSettler{}
	recent := newMemRecent()

	tr := newTrigger(pending, scores, settler, recent)

	fired := 0
	tr.OnTriggered = func() { fired++ }

	tr.sweep(context.Background())

	assert.Equal(t, []string{"game-1"}, settler.games)
	assert.Equal(t, 1, fired)
	_, marked := recent.seen["game-1"]
	assert.True(t, marked, "jogo finalizado entra na janela de retenção")
}

// Jogo já dentro da janela de retenção sai do conjunto observado e não
// dispara de novo.
func TestSweepSkipsRecentlyFinalGames(t *testing.T) {
	pending := &fakePending{ids: []string{"game-1"}}
	scores := &fakeScores{results: map[string]engine.GameResult{"game-1": final("game-1")}}
	settler := &fakeSettler{}
	recent := newMemRecent()

	tr := newTrigger(pending, scores, settler, recent)

	tr.sweep(context.Background())
	tr.sweep(context.Background())

	assert.Equal(t, []string{"game-1"}, settler.games, "uma liquidação só")
	assert.Contains(t, pending.gotExcl, "game-1", "retenção estreita a consulta seguinte")
}

func TestSweepNoPendingGamesSkipsScoreFetch(t *testing.T) {
	pending := &fakePending{}
	scores := &fakeScores{}
	tr := newTrigger(pending, scores, &fakeSettler{}, newMemRecent())

	tr.sweep(context.Background())
	assert.Zero(t, scores.calls, "sem jogo observado não consulta placar")
}

func TestSweepGameStillLiveDoesNotTrigger(t *testing.T) {
	pending := &fakePending{ids: []string{"game-1"}}
	scores := &fakeScores{results: map[string]engine.GameResult{}}
	settler := &fakeSettler{}

	tr := newTrigger(pending, scores, settler, newMemRecent())
	tr.sweep(context.Background())

	assert.Empty(t, settler.games)
}

// Uma iteração com falha não pode matar o loop nem vazar pânico.
func TestSweepContainsErrors(t *testing.T) {
	settler := &fakeSettler{err: errors.New("settlement failed")}
	pending := &fakePending{ids: []string{"game-1"}}
	scores := &fakeScores{results: map[string]engine.GameResult{"game-1": final("game-1")}}

	tr := newTrigger(pending, scores, settler, newMemRecent())

	var stages []string
	tr.OnError = func(stage string) { stages = append(stages, stage) }

	assert.NotPanics(t, func() { tr.sweep(context.Background()) })
	assert.Contains(t, stages, "settle")

	tr.Pending = &fakePending{err: errors.New("pg down")}
	assert.NotPanics(t, func() { tr.sweep(context.Background()) })
	assert.Contains(t, stages, "pending")
}

func TestStartStop(t *testing.T) {
	pending := &fakePending{ids: []string{"game-1"}}
	scores := &fakeScores{results: map[string]engine.GameResult{"game-1": final("game-1")}}
	settler := &fakeSettler{}

	tr := newTrigger(pending, scores, settler, newMemRecent())
	tr.Interval = 5 * time.Millisecond

	tr.Start(context.Background())
	require.Eventually(t, func() bool {
		settler.mu.Lock()
		defer settler.mu.Unlock()
		return len(settler.games) > 0
	}, time.Second, time.Millisecond)

	tr.Stop()
	tr.Stop() // idempotente
}

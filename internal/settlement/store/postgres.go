package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/sports-bet-settlement-poc/internal/settlement/engine"
)

// Postgres implementa a persistência de apostas e do histórico de liquidação.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de liquidação
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const straightColumns = `id, user_id, game_id, kind, selection, odds, stake_cents, payout_cents, status, placed_at, settled_at`

func scanStraight(rows *sql.Rows) (engine.StraightBet, error) {
	var b engine.StraightBet
	var settledAt sql.NullTime
	err := rows.Scan(&b.ID, &b.UserID, &b.GameID, &b.Kind, &b.Selection, &b.Odds,
		&b.StakeCents, &b.PayoutCents, &b.Status, &b.PlacedAt, &settledAt)
	if err != nil {
		return engine.StraightBet{}, err
	}
	if settledAt.Valid {
		b.SettledAt = &settledAt.Time
	}
	return b, nil
}

// QueryPendingStraights carrega apostas simples PENDING. gameID vazio traz
// todas; preenchido, restringe ao jogo (varredura escopada do trigger).
func (p *Postgres) QueryPendingStraights(ctx context.Context, gameID string) ([]engine.StraightBet, error) {
	q := `SELECT ` + straightColumns + ` FROM bets
	      WHERE status='PENDING' AND parent_id IS NULL AND kind <> 'PARLAY'`
	args := []any{}
	if gameID != "" {
		q += ` AND game_id=$1`
		args = append(args, gameID)
	}
	q += ` ORDER BY placed_at`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending straights: %w", err)
	}
	defer rows.Close()

	var out []engine.StraightBet
	for rows.Next() {
		b, err := scanStraight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// QueryPendingParlays carrega parlays PENDING com suas pernas ordenadas.
// gameID preenchido restringe a parlays com pelo menos uma perna no jogo.
func (p *Postgres) QueryPendingParlays(ctx context.Context, gameID string) ([]engine.Parlay, error) {
	q := `SELECT id, user_id, stake_cents, payout_cents, status, placed_at FROM bets
	      WHERE status='PENDING' AND kind='PARLAY'`
	args := []any{}
	if gameID != "" {
		q += ` AND id IN (SELECT parent_id FROM bets WHERE parent_id IS NOT NULL AND game_id=$1)`
		args = append(args, gameID)
	}
	q += ` ORDER BY placed_at`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending parlays: %w", err)
	}
	defer rows.Close()

	var parlays []engine.Parlay
	for rows.Next() {
		var pl engine.Parlay
		if err := rows.Scan(&pl.ID, &pl.UserID, &pl.StakeCents, &pl.PayoutCents, &pl.Status, &pl.PlacedAt); err != nil {
			return nil, err
		}
		parlays = append(parlays, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range parlays {
		legs, err := p.Legs(ctx, parlays[i].ID)
		if err != nil {
			return nil, err
		}
		parlays[i].Legs = legs
	}
	return parlays, nil
}

// Legs recarrega as pernas de um parlay na ordem original. O orquestrador
// chama de novo logo antes de agregar, pra não combinar estado que outra
// execução concorrente já mudou.
func (p *Postgres) Legs(ctx context.Context, parlayID string) ([]engine.Leg, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, parent_id, leg_position, game_id, kind, selection, odds, status
		FROM bets WHERE parent_id=$1 ORDER BY leg_position`, parlayID)
	if err != nil {
		return nil, fmt.Errorf("query legs: %w", err)
	}
	defer rows.Close()

	var legs []engine.Leg
	for rows.Next() {
		var l engine.Leg
		if err := rows.Scan(&l.ID, &l.ParlayID, &l.Position, &l.GameID, &l.Kind, &l.Selection, &l.Odds, &l.Status); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// GetStraight carrega uma aposta simples pelo id (API de cash-out).
func (p *Postgres) GetStraight(ctx context.Context, betID string) (engine.StraightBet, error) {
	var b engine.StraightBet
	var settledAt sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT `+straightColumns+` FROM bets WHERE id=$1 AND parent_id IS NULL AND kind <> 'PARLAY'`, betID).
		Scan(&b.ID, &b.UserID, &b.GameID, &b.Kind, &b.Selection, &b.Odds,
			&b.StakeCents, &b.PayoutCents, &b.Status, &b.PlacedAt, &settledAt)
	if err != nil {
		return engine.StraightBet{}, err
	}
	if settledAt.Valid {
		b.SettledAt = &settledAt.Time
	}
	return b, nil
}

// SettleConditional aplica o status terminal de uma aposta com update
// condicional: só sai do PENDING, exatamente uma vez. Zero linhas afetadas
// significa que outra execução liquidou antes; não é erro.
func (p *Postgres) SettleConditional(ctx context.Context, betID string, st engine.Status, amountCents int64, settledAt time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status=$1, result_cents=$2, settled_at=$3, updated_at=NOW()
		WHERE id=$4 AND status='PENDING'`,
		string(st), amountCents, settledAt, betID)
	if err != nil {
		return false, fmt.Errorf("settle bet %s: %w", betID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SettleLegConditional grava o status terminal de uma perna, também com
// guarda de PENDING. Pernas não movimentam valor próprio.
func (p *Postgres) SettleLegConditional(ctx context.Context, legID string, st engine.Status) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status=$1, settled_at=NOW(), updated_at=NOW()
		WHERE id=$2 AND parent_id IS NOT NULL AND status='PENDING'`,
		string(st), legID)
	if err != nil {
		return false, fmt.Errorf("settle leg %s: %w", legID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CashOutConditional aceita o cash-out de uma aposta ao vivo ainda PENDING.
func (p *Postgres) CashOutConditional(ctx context.Context, betID string, valueCents int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status='CASHED_OUT', result_cents=$1, settled_at=NOW(), updated_at=NOW()
		WHERE id=$2 AND kind='LIVE' AND status='PENDING'`,
		valueCents, betID)
	if err != nil {
		return false, fmt.Errorf("cash out bet %s: %w", betID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AppendHistory grava o registro imutável da transição de status.
func (p *Postgres) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settlement_history (id, bet_id, old_status, new_status, amount_cents, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		rec.ID, rec.BetID, rec.OldStatus, rec.NewStatus, rec.AmountCents, rec.Reason)
	return err
}

// UpsertResult persiste o placar final de um jogo referenciado por apostas.
func (p *Postgres) UpsertResult(ctx context.Context, r engine.GameResult) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO game_results (game_id, home_team, away_team, home_score, away_score, completed, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (game_id) DO UPDATE SET
		  home_team  = EXCLUDED.home_team,
		  away_team  = EXCLUDED.away_team,
		  home_score = EXCLUDED.home_score,
		  away_score = EXCLUDED.away_score,
		  completed  = EXCLUDED.completed,
		  updated_at = EXCLUDED.updated_at`,
		r.GameID, r.HomeTeam, r.AwayTeam, r.HomeScore, r.AwayScore, r.Completed)
	return err
}

// PendingGameIDs lista os jogos distintos com pelo menos uma aposta PENDING,
// excluindo os já conhecidos como finalizados (escopo do completion trigger).
func (p *Postgres) PendingGameIDs(ctx context.Context, exclude []string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT game_id FROM bets
		WHERE status='PENDING' AND game_id <> '' AND NOT (game_id = ANY($1))`,
		pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("query pending game ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

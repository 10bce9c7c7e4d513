package engine

import "time"

// Kind é o conjunto fechado de tipos de aposta suportados pela liquidação.
type Kind string

const (
	KindMoneyline Kind = "MONEYLINE"
	KindSpread    Kind = "SPREAD"
	KindTotal     Kind = "TOTAL"
	KindParlay    Kind = "PARLAY"
	KindProp      Kind = "PROP"
	KindLive      Kind = "LIVE"
)

// Status é o ciclo de vida de uma aposta. PENDING é o único estado não
// terminal; uma vez terminal, a aposta é imutável.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
	StatusPushed    Status = "PUSHED"
	StatusCancelled Status = "CANCELLED"
	StatusCashedOut Status = "CASHED_OUT"
)

// Terminal indica se o status encerra o ciclo de vida da aposta.
func (s Status) Terminal() bool {
	return s != StatusPending && s != ""
}

// StraightBet é uma aposta simples (moneyline, spread, total, prop ou live)
// contra um único jogo.
type StraightBet struct {
	ID          string
	UserID      string
	GameID      string
	Kind        Kind
	Selection   string // texto da seleção, ex: "Kansas City Chiefs -3.5"
	Odds        int    // cotação americana; zero é inválido
	StakeCents  int64
	PayoutCents int64 // lucro potencial; sempre derivado de stake e odds
	Status      Status
	PlacedAt    time.Time
	SettledAt   *time.Time
}

// Leg é uma perna de parlay. Pernas não carregam stake próprio nem podem
// possuir sub-pernas; o stake vive no parlay pai.
type Leg struct {
	ID        string
	ParlayID  string
	Position  int
	GameID    string
	Kind      Kind // apenas tipos simples
	Selection string
	Odds      int
	Status    Status
}

// Parlay é uma aposta combinada dona de uma lista ordenada de pernas.
// O tipo separado garante que um pai de parlay nunca é também uma perna.
type Parlay struct {
	ID          string
	UserID      string
	StakeCents  int64
	PayoutCents int64 // lucro potencial do combo completo
	Status      Status
	PlacedAt    time.Time
	SettledAt   *time.Time
	Legs        []Leg // ordenadas por Position
}

// GameResult é o placar final de um jogo. Completed só é verdadeiro quando
// os dois placares estão presentes na fonte; um resultado incompleto nunca
// liquida aposta.
type GameResult struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Completed bool
}

// Outcome é o resultado da avaliação de uma aposta.
// Convenção de valores: WON = stake+lucro; LOST = 0; PUSHED/CANCELLED = stake.
type Outcome struct {
	Status      Status
	AmountCents int64
	Reason      string
}

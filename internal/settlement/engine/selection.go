package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type side int

const (
	sideHome side = iota
	sideAway
)

var (
	signedNumberRe = regexp.MustCompile(`[+-]\d+(?:\.\d+)?`)
	numberRe       = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// resolveSide mapeia o texto da seleção para HOME ou AWAY por comparação
// exata ou substring, sem diferenciar maiúsculas. Seleção ambígua (bate nos
// dois times) ou sem correspondência é erro.
func resolveSide(selection, homeTeam, awayTeam string) (side, error) {
	sel := strings.ToLower(strings.TrimSpace(selection))
	home := strings.ToLower(strings.TrimSpace(homeTeam))
	away := strings.ToLower(strings.TrimSpace(awayTeam))

	if sel == "" || home == "" || away == "" {
		return 0, fmt.Errorf("empty selection or team names")
	}

	matchesHome := sel == home || strings.Contains(sel, home) || strings.Contains(home, sel)
	matchesAway := sel == away || strings.Contains(sel, away) || strings.Contains(away, sel)

	switch {
	case matchesHome && matchesAway:
		return 0, fmt.Errorf("selection %q matches both teams", selection)
	case matchesHome:
		return sideHome, nil
	case matchesAway:
		return sideAway, nil
	default:
		return 0, fmt.Errorf("selection %q matches neither %q nor %q", selection, homeTeam, awayTeam)
	}
}

// spreadValue extrai o primeiro token numérico com sinal EXPLÍCITO do
// texto ("Chiefs -3.5"). O sinal é obrigatório pra que dígitos no nome do
// time ("49ers", "76ers") nunca sejam confundidos com a linha.
func spreadValue(s string) (float64, bool) {
	tok := signedNumberRe.FindString(s)
	if tok == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// totalLine detecta a direção de uma aposta de total e extrai a linha
// imediatamente após a palavra-chave ("Over 45.5"), ignorando qualquer
// dígito que apareça antes dela.
func totalLine(selection string) (line float64, isOver bool, ok bool) {
	sel := strings.ToLower(selection)
	var rest string
	if i := strings.Index(sel, "over"); i >= 0 {
		rest, isOver = sel[i+len("over"):], true
	} else if i := strings.Index(sel, "under"); i >= 0 {
		rest, isOver = sel[i+len("under"):], false
	} else {
		return 0, false, false
	}
	tok := numberRe.FindString(rest)
	if tok == "" {
		return 0, false, false
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false, false
	}
	return n, isOver, true
}

// Margin é a distância, em pontos, entre a seleção e o resultado que ela
// precisa pra ganhar, dado o placar informado. Positiva = ganhando,
// zero = push, negativa = perdendo. Compartilhada entre o avaliador de
// resultado final e o avaliador de cash-out ao vivo.
func Margin(kind Kind, selection, homeTeam, awayTeam string, homeScore, awayScore int) (float64, error) {
	switch kind {
	case KindMoneyline, KindLive:
		sd, err := resolveSide(selection, homeTeam, awayTeam)
		if err != nil {
			return 0, err
		}
		if sd == sideHome {
			return float64(homeScore - awayScore), nil
		}
		return float64(awayScore - homeScore), nil

	case KindSpread:
		sd, err := resolveSide(selection, homeTeam, awayTeam)
		if err != nil {
			return 0, err
		}
		spread, ok := spreadValue(selection)
		if !ok {
			return 0, fmt.Errorf("no signed spread value in selection %q", selection)
		}
		if sd == sideHome {
			return float64(homeScore) + spread - float64(awayScore), nil
		}
		return float64(awayScore) + spread - float64(homeScore), nil

	case KindTotal:
		line, over, ok := totalLine(selection)
		if !ok {
			return 0, fmt.Errorf("no over/under line in selection %q", selection)
		}
		total := float64(homeScore + awayScore)
		if over {
			return total - line, nil
		}
		return line - total, nil

	default:
		return 0, fmt.Errorf("kind %s cannot be graded from a score", kind)
	}
}

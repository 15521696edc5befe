package board

import (
	"fmt"
	"strings"
)

// SAN returns the Standard Algebraic Notation of m, which must be legal in p.
func (p *Position) SAN(m Move) string {
	if m == NoMove {
		return "-"
	}

	var sb strings.Builder
	switch {
	case m.IsCastling() && m.To() > m.From():
		sb.WriteString("O-O")
	case m.IsCastling():
		sb.WriteString("O-O-O")
	default:
		pt := m.Piece()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(p.disambiguation(m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte(byte('a' + m.From().File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To().String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion()])
		}
	}

	undo := p.MakeMove(m)
	if p.InCheck() {
		if p.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	p.UnmakeMove(m, undo)

	return sb.String()
}

func (p *Position) disambiguation(m Move) string {
	from := m.From()
	sameFile, sameRank, ambiguous := false, false, false
	for _, other := range p.GenerateLegalMoves().Slice() {
		if other.To() != m.To() || other.From() == from || other.Piece() != m.Piece() {
			continue
		}
		ambiguous = true
		sameFile = sameFile || other.From().File() == from.File()
		sameRank = sameRank || other.From().Rank() == from.Rank()
	}
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// ParseSAN resolves a SAN description against the legal moves of p.
func (p *Position) ParseSAN(s string) (Move, error) {
	orig := s
	s = strings.TrimRight(strings.TrimSpace(s), "+#!?")
	legal := p.GenerateLegalMoves().Slice()

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		kingSide := len(s) == 3
		for _, m := range legal {
			if m.IsCastling() && (m.To() > m.From()) == kingSide {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, orig)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		promo = PieceFromChar(s[idx+1]).Type()
		s = s[:idx]
	}
	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && strings.IndexByte("NBRQK", s[0]) >= 0 {
		pt = PieceFromChar(s[0]).Type()
		s = s[1:]
	}
	if len(s) < 2 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, orig)
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		}
	}

	for _, m := range legal {
		if m.To() != dest || m.Piece() != pt || m.Promotion() != promo || m.IsCastling() {
			continue
		}
		if file >= 0 && m.From().File() != file || rank >= 0 && m.From().Rank() != rank {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, orig)
}

// MovesToSAN converts a line of moves played from p to SAN. p is unchanged.
func MovesToSAN(p *Position, moves []Move) []string {
	line := p.Copy()
	result := make([]string, len(moves))
	for i, m := range moves {
		result[i] = line.SAN(m)
		line.MakeMove(m)
	}
	return result
}

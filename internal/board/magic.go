package board

import (
	"fmt"
	"math"
	"math/bits"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// Magic numbers are discovered at startup rather than hard-coded. Candidates
// come from a ChaCha stream seeded per (slider, square), so every run builds
// the same tables.

const maxMagicAttempts = 1 << 24

var magicSeed = [32]byte{'c', 'h', 'e', 's', 's', 'c', 'o', 'r', 'e', '/', 'm', 'a', 'g', 'i', 'c'}

// Magic holds the fancy magic bitboard data for one slider on one square.
type Magic struct {
	Mask    Bitboard // relevant occupancy, board edges excluded
	Number  uint64
	Shift   uint8
	Attacks []Bitboard
}

func (m *Magic) index(occupied Bitboard) uint64 {
	return (uint64(occupied&m.Mask) * m.Number) >> m.Shift
}

func (m *Magic) attacks(occupied Bitboard) Bitboard {
	return m.Attacks[m.index(occupied)]
}

var (
	bishopMagics [64]Magic
	rookMagics   [64]Magic
)

// NewMagicRNG returns the deterministic candidate generator used for the
// given slider and square.
func NewMagicRNG(sq Square, pt PieceType) *frand.RNG {
	seed := magicSeed
	seed[30] = byte(pt)
	seed[31] = byte(sq)
	return frand.NewCustom(seed[:], 1024, 12)
}

func initMagics() error {
	var g errgroup.Group
	for sq := A1; sq <= H8; sq++ {
		g.Go(func() error {
			m, err := FindMagic(sq, Bishop, NewMagicRNG(sq, Bishop), maxMagicAttempts)
			if err != nil {
				return err
			}
			bishopMagics[sq] = m
			return nil
		})
		g.Go(func() error {
			m, err := FindMagic(sq, Rook, NewMagicRNG(sq, Rook), maxMagicAttempts)
			if err != nil {
				return err
			}
			rookMagics[sq] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return VerifySliderAttacks()
}

// FindMagic searches for a magic number for a bishop or rook on sq by
// rejection sampling. A candidate is accepted when every occupancy subset of
// the relevance mask maps to a slot that holds either nothing yet or the same
// attack set. At most maxAttempts candidates are tried.
func FindMagic(sq Square, pt PieceType, rng *frand.RNG, maxAttempts int) (Magic, error) {
	var mask Bitboard
	var slow func(Square, Bitboard) Bitboard
	switch pt {
	case Bishop:
		mask, slow = bishopMask(sq), bishopAttacksSlow
	case Rook:
		mask, slow = rookMask(sq), rookAttacksSlow
	default:
		return Magic{}, fmt.Errorf("%w: %s is not a slider", ErrMagicTableConstruction, pt)
	}

	n := mask.PopCount()
	size := 1 << n
	shift := uint8(64 - n)

	occupancies := make([]Bitboard, size)
	reference := make([]Bitboard, size)
	var subset Bitboard
	for i := 0; i < size; i++ {
		occupancies[i] = subset
		reference[i] = slow(sq, subset)
		subset = (subset - mask) & mask
	}

	table := make([]Bitboard, size)
	epoch := make([]int, size)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		number := sparseRandom(rng)
		if bits.OnesCount64((uint64(mask)*number)&0xFF00000000000000) < 6 {
			continue
		}

		ok := true
		for i := 0; i < size; i++ {
			idx := (uint64(occupancies[i]) * number) >> shift
			if epoch[idx] < attempt {
				epoch[idx] = attempt
				table[idx] = reference[i]
			} else if table[idx] != reference[i] {
				ok = false
				break
			}
		}
		if ok {
			return Magic{Mask: mask, Number: number, Shift: shift, Attacks: table}, nil
		}
	}

	return Magic{}, fmt.Errorf("%w: %s on %s after %d attempts", ErrMagicTableConstruction, pt, sq, maxAttempts)
}

func sparseRandom(rng *frand.RNG) uint64 {
	return rng.Uint64n(math.MaxUint64) & rng.Uint64n(math.MaxUint64) & rng.Uint64n(math.MaxUint64)
}

// VerifySliderAttacks checks every occupancy subset of every square against
// ray-traced attacks.
func VerifySliderAttacks() error {
	for sq := A1; sq <= H8; sq++ {
		if err := verifyMagic(sq, Bishop, &bishopMagics[sq], bishopAttacksSlow); err != nil {
			return err
		}
		if err := verifyMagic(sq, Rook, &rookMagics[sq], rookAttacksSlow); err != nil {
			return err
		}
	}
	return nil
}

func verifyMagic(sq Square, pt PieceType, m *Magic, slow func(Square, Bitboard) Bitboard) error {
	if len(m.Attacks) == 0 {
		return fmt.Errorf("%w: %s on %s has no table", ErrMagicTableConstruction, pt, sq)
	}
	var subset Bitboard
	for {
		if got, want := m.attacks(subset), slow(sq, subset); got != want {
			return fmt.Errorf("%w: %s on %s disagrees with ray tracing for occupancy %#x",
				ErrMagicTableConstruction, pt, sq, uint64(subset))
		}
		subset = (subset - m.Mask) & m.Mask
		if subset == 0 {
			return nil
		}
	}
}

// bishopMask returns the relevant occupancy mask for a bishop on sq.
func bishopMask(sq Square) Bitboard {
	return bishopAttacksSlow(sq, 0) &^ edges
}

// rookMask returns the relevant occupancy mask for a rook on sq. Edge squares
// are dropped per ray, so a rook on the a-file still sees a2..a7.
func rookMask(sq Square) Bitboard {
	file, rank := sq.File(), sq.Rank()
	var mask Bitboard
	for f := 1; f < 7; f++ {
		if f != file {
			mask |= SquareBB(NewSquare(f, rank))
		}
	}
	for r := 1; r < 7; r++ {
		if r != rank {
			mask |= SquareBB(NewSquare(file, r))
		}
	}
	return mask
}

var (
	bishopDirections = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirections   = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

func rayAttacks(sq Square, occupied Bitboard, dirs [4][2]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		for f, r := sq.File()+d[0], sq.Rank()+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
			s := SquareBB(NewSquare(f, r))
			attacks |= s
			if occupied&s != 0 {
				break
			}
		}
	}
	return attacks
}

// bishopAttacksSlow computes bishop attacks by ray casting.
func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(sq, occupied, bishopDirections)
}

// rookAttacksSlow computes rook attacks by ray casting.
func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return rayAttacks(sq, occupied, rookDirections)
}

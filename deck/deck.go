package deck

import (
	crand "crypto/rand"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Card is one card of the 21-card deck. ID is opaque and unique within a
// game; Type is an opaque tag carried through to clients.
type Card struct {
	ID       string `json:"id"`
	GeishaID int    `json:"geishaId"`
	Type     string `json:"type"`
}

const cardType = "item"

// newRand returns a ChaCha8 generator seeded from crypto/rand. Deck order is
// hidden information, so a predictable seed would leak the removed card.
func newRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand never fails on supported platforms; log and fall back
		// to the zero seed rather than crash a running room.
		slog.Error("seeding deck shuffle", "tag", "deck", "err", err)
	}
	return rand.New(rand.NewChaCha8(seed))
}

// BuildDeck creates charm-many cards per geisha, shuffles them uniformly and
// removes the last card face-down. The removed card is never sent to clients.
func BuildDeck(geishas []Geisha) (drawPile []Card, removed Card) {
	cards := make([]Card, 0, TotalCharm)
	for _, g := range geishas {
		for i := 0; i < g.Charm; i++ {
			cards = append(cards, Card{
				ID:       uuid.NewString(),
				GeishaID: g.ID,
				Type:     cardType,
			})
		}
	}

	rng := newRand()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	removed = cards[len(cards)-1]
	drawPile = cards[:len(cards)-1]
	return drawPile, removed
}

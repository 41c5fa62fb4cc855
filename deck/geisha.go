package deck

// Geisha is one of the seven favor targets. Charm is both the number of cards
// in the deck for this geisha and the score for controlling her. ControlledBy
// holds the id of the controlling player, or "" for none; it persists across
// rounds within a game.
type Geisha struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Charm        int    `json:"charm"`
	ControlledBy string `json:"controlledBy"`
}

// charmValues are the charm points by geisha position. They sum to 21.
var charmValues = [7]int{2, 2, 2, 3, 3, 4, 5}

// geishaSets maps a set key to the seven display names, ordered by charm.
// The roster is purely cosmetic; rules depend only on ids and charm.
var geishaSets = map[string][7]string{
	"default":  {"Yoko", "Iroha", "Kiku", "Umeno", "Tsubaki", "Sayaka", "Momiji"},
	"akatsuki": {"Akane", "Hikari", "Tsukuyo", "Hoshimi", "Kaguya", "Amane", "Shion"},
}

// DefaultSetKey is used when a requested set key is unknown or empty.
const DefaultSetKey = "default"

// BuildBaseGeishas returns the seven geisha for the given set key in
// deterministic order (ids 1..7, ascending charm), with no controller.
// Unknown set keys fall back to the default roster.
func BuildBaseGeishas(setKey string) []Geisha {
	names, ok := geishaSets[setKey]
	if !ok {
		names = geishaSets[DefaultSetKey]
	}
	geishas := make([]Geisha, 7)
	for i := 0; i < 7; i++ {
		geishas[i] = Geisha{
			ID:    i + 1,
			Name:  names[i],
			Charm: charmValues[i],
		}
	}
	return geishas
}

// TotalCharm is the charm sum across all seven geisha and therefore the deck size.
const TotalCharm = 21

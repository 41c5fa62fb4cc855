package ai

import (
	"math"
	"math/rand/v2"
	"sort"

	"hanamikoji-server/deck"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
)

// position is the AI's working model of the game, extracted from a sanitized
// view. Only public information and the AI's own hand go into it.
type position struct {
	geishas []deck.Geisha
	mine    map[int]int // cards played per geisha id, AI side
	theirs  map[int]int
	hand    []deck.Card
	unused  []game.ActionKind
}

func buildPosition(v *game.View, playerID string) *position {
	pos := &position{
		geishas: v.Geishas,
		mine:    make(map[int]int),
		theirs:  make(map[int]int),
	}
	for _, p := range v.Players {
		if p.ID == playerID {
			for _, c := range p.Hand {
				pos.hand = append(pos.hand, deck.Card{ID: c.ID, GeishaID: c.GeishaID, Type: c.Type})
			}
			for _, c := range p.PlayedCards {
				pos.mine[c.GeishaID]++
			}
			for _, t := range p.Tokens {
				if !t.Used {
					pos.unused = append(pos.unused, t.Kind)
				}
			}
		} else {
			for _, c := range p.PlayedCards {
				pos.theirs[c.GeishaID]++
			}
		}
	}
	return pos
}

func (pos *position) hasToken(kind game.ActionKind) bool {
	for _, k := range pos.unused {
		if k == kind {
			return true
		}
	}
	return false
}

func (pos *position) charm(geishaID int) int {
	for _, g := range pos.geishas {
		if g.ID == geishaID {
			return g.Charm
		}
	}
	return 0
}

// myUtility scores placing one more card on a geisha for the AI. Flipping a
// lost or contested geisha is worth far more than stacking a safe one.
func (pos *position) myUtility(geishaID int) int {
	charm := pos.charm(geishaID)
	my, opp := pos.mine[geishaID], pos.theirs[geishaID]
	switch {
	case my <= opp && my+1 > opp:
		return 4 * charm
	case my+1 == opp:
		return 2 * charm
	default:
		return charm
	}
}

// oppUtility is myUtility from the opponent's side of the table.
func (pos *position) oppUtility(geishaID int) int {
	charm := pos.charm(geishaID)
	my, opp := pos.theirs[geishaID], pos.mine[geishaID]
	switch {
	case my <= opp && my+1 > opp:
		return 4 * charm
	case my+1 == opp:
		return 2 * charm
	default:
		return charm
	}
}

// withPlaced simulates placing cards on both sides and returns the new
// position. The hand and tokens are not carried; only counts matter to eval.
func (pos *position) withPlaced(mineCards, theirCards []deck.Card) *position {
	next := &position{geishas: pos.geishas, mine: make(map[int]int, len(pos.mine)), theirs: make(map[int]int, len(pos.theirs))}
	for id, n := range pos.mine {
		next.mine[id] = n
	}
	for id, n := range pos.theirs {
		next.theirs[id] = n
	}
	for _, c := range mineCards {
		next.mine[c.GeishaID]++
	}
	for _, c := range theirCards {
		next.theirs[c.GeishaID]++
	}
	return next
}

// evaluate scores a position from the AI's side: controlled charm weighted
// double plus the card margin on every geisha, minus the same for the
// opponent. Positive is good for the AI.
func evaluate(pos *position) int {
	total := 0
	for _, g := range pos.geishas {
		diff := pos.mine[g.ID] - pos.theirs[g.ID]
		switch {
		case diff > 0:
			total += 2*g.Charm + 3*diff
		case diff < 0:
			total -= 2*g.Charm + 3*(-diff)
		}
	}
	return total
}

// brain selects moves for one difficulty tier. easy plays uniformly at
// random; medium and hard play greedy per-card utility assuming a greedy
// opponent; expert and hell assume a worst-case opponent reply.
type brain struct {
	tier string
}

func newBrain(difficulty string) *brain {
	return &brain{tier: difficulty}
}

func (b *brain) random() bool {
	return b.tier == "easy"
}

func (b *brain) worstCase() bool {
	return b.tier == "expert" || b.tier == "hell"
}

// turnPreference is the token order the non-random tiers spend first: the
// interactive actions go early while the hand is still rich enough to shape
// the offer.
var turnPreference = [4]game.ActionKind{game.ActionCompetition, game.ActionGift, game.ActionSecret, game.ActionTradeOff}

var tokenCardCost = map[game.ActionKind]int{
	game.ActionSecret:      1,
	game.ActionTradeOff:    2,
	game.ActionGift:        3,
	game.ActionCompetition: 4,
}

func (b *brain) chooseTurn(pos *position) protocol.ActionMsg {
	if b.random() {
		return b.randomTurn(pos)
	}
	for _, kind := range turnPreference {
		if !pos.hasToken(kind) || len(pos.hand) < tokenCardCost[kind] {
			continue
		}
		switch kind {
		case game.ActionCompetition:
			return b.buildCompetition(pos)
		case game.ActionGift:
			return b.buildGift(pos)
		case game.ActionSecret:
			return b.buildSecret(pos)
		case game.ActionTradeOff:
			return b.buildTradeOff(pos)
		}
	}
	return b.randomTurn(pos)
}

func (b *brain) randomTurn(pos *position) protocol.ActionMsg {
	var playable []game.ActionKind
	for _, kind := range pos.unused {
		if len(pos.hand) >= tokenCardCost[kind] {
			playable = append(playable, kind)
		}
	}
	if len(playable) == 0 {
		playable = pos.unused
	}
	kind := playable[rand.IntN(len(playable))]
	picks := randomIDs(pos.hand, tokenCardCost[kind])
	switch kind {
	case game.ActionSecret:
		return actionMsg(protocol.ActionPlaySecret, protocol.PlaySecretPayload{CardID: picks[0]})
	case game.ActionTradeOff:
		return actionMsg(protocol.ActionPlayTradeOff, protocol.TradeOffPayload{CardIDs: picks})
	case game.ActionGift:
		return actionMsg(protocol.ActionInitiateGift, protocol.GiftPayload{CardIDs: picks})
	default:
		return actionMsg(protocol.ActionInitiateCompetition, protocol.CompetitionPayload{Groups: [][]string{{picks[0], picks[1]}, {picks[2], picks[3]}}})
	}
}

func randomIDs(hand []deck.Card, n int) []string {
	perm := rand.Perm(len(hand))
	ids := make([]string, 0, n)
	for _, i := range perm[:n] {
		ids = append(ids, hand[i].ID)
	}
	return ids
}

// buildSecret keeps the single most valuable card for the end-of-round reveal.
func (b *brain) buildSecret(pos *position) protocol.ActionMsg {
	best := pos.hand[0]
	for _, c := range pos.hand[1:] {
		if pos.myUtility(c.GeishaID) > pos.myUtility(best.GeishaID) {
			best = c
		}
	}
	return actionMsg(protocol.ActionPlaySecret, protocol.PlaySecretPayload{CardID: best.ID})
}

// buildTradeOff discards the two least useful cards; discards never score.
func (b *brain) buildTradeOff(pos *position) protocol.ActionMsg {
	sorted := append([]deck.Card(nil), pos.hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pos.myUtility(sorted[i].GeishaID) < pos.myUtility(sorted[j].GeishaID)
	})
	return actionMsg(protocol.ActionPlayTradeOff, protocol.TradeOffPayload{CardIDs: []string{sorted[0].ID, sorted[1].ID}})
}

// buildGift searches every three-card offer. The opponent keeps one card and
// the AI keeps the other two, so each offer is scored by simulating the
// opponent's pick: greedy tiers assume the opponent grabs their best card,
// worst-case tiers take the minimum over all three picks.
func (b *brain) buildGift(pos *position) protocol.ActionMsg {
	var bestIDs []string
	bestScore := math.MinInt
	for _, combo := range combinations(len(pos.hand), 3) {
		offer := []deck.Card{pos.hand[combo[0]], pos.hand[combo[1]], pos.hand[combo[2]]}
		score := b.giftOfferScore(pos, offer)
		if score > bestScore {
			bestScore = score
			bestIDs = []string{offer[0].ID, offer[1].ID, offer[2].ID}
		}
	}
	return actionMsg(protocol.ActionInitiateGift, protocol.GiftPayload{CardIDs: bestIDs})
}

func (b *brain) giftOfferScore(pos *position, offer []deck.Card) int {
	if b.worstCase() {
		worst := math.MaxInt
		for pick := range offer {
			if s := giftOutcome(pos, offer, pick); s < worst {
				worst = s
			}
		}
		return worst
	}
	pick := 0
	for i := 1; i < len(offer); i++ {
		if pos.oppUtility(offer[i].GeishaID) > pos.oppUtility(offer[pick].GeishaID) {
			pick = i
		}
	}
	return giftOutcome(pos, offer, pick)
}

func giftOutcome(pos *position, offer []deck.Card, pick int) int {
	kept := make([]deck.Card, 0, 2)
	for i, c := range offer {
		if i != pick {
			kept = append(kept, c)
		}
	}
	return evaluate(pos.withPlaced(kept, []deck.Card{offer[pick]}))
}

// competitionPartitions are the three ways to split four cards into two pairs.
var competitionPartitions = [3][2][2]int{
	{{0, 1}, {2, 3}},
	{{0, 2}, {1, 3}},
	{{0, 3}, {1, 2}},
}

// buildCompetition offers the four strongest cards, grouped by the pairing
// whose worse half (per the tier's opponent model) leaves the AI best off.
func (b *brain) buildCompetition(pos *position) protocol.ActionMsg {
	sorted := append([]deck.Card(nil), pos.hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pos.myUtility(sorted[i].GeishaID) > pos.myUtility(sorted[j].GeishaID)
	})
	picked := sorted[:4]

	bestPartition := 0
	bestScore := math.MinInt
	for pi, partition := range competitionPartitions {
		groups := partitionGroups(picked, partition)
		score := b.competitionOfferScore(pos, groups)
		if score > bestScore {
			bestScore = score
			bestPartition = pi
		}
	}
	groups := partitionGroups(picked, competitionPartitions[bestPartition])
	return actionMsg(protocol.ActionInitiateCompetition, protocol.CompetitionPayload{Groups: [][]string{
		{groups[0][0].ID, groups[0][1].ID},
		{groups[1][0].ID, groups[1][1].ID},
	}})
}

func partitionGroups(cards []deck.Card, partition [2][2]int) [2][]deck.Card {
	return [2][]deck.Card{
		{cards[partition[0][0]], cards[partition[0][1]]},
		{cards[partition[1][0]], cards[partition[1][1]]},
	}
}

func (b *brain) competitionOfferScore(pos *position, groups [2][]deck.Card) int {
	if b.worstCase() {
		worst := math.MaxInt
		for pick := 0; pick < 2; pick++ {
			if s := competitionOutcome(pos, groups, pick); s < worst {
				worst = s
			}
		}
		return worst
	}
	pick := 0
	if groupOppUtility(pos, groups[1]) > groupOppUtility(pos, groups[0]) {
		pick = 1
	}
	return competitionOutcome(pos, groups, pick)
}

func competitionOutcome(pos *position, groups [2][]deck.Card, oppPick int) int {
	return evaluate(pos.withPlaced(groups[1-oppPick], groups[oppPick]))
}

func groupOppUtility(pos *position, group []deck.Card) int {
	total := 0
	for _, c := range group {
		total += pos.oppUtility(c.GeishaID)
	}
	return total
}

// chooseGiftCard answers an opponent's gift: the AI is the target and keeps
// exactly one of the three offered cards.
func (b *brain) chooseGiftCard(pos *position, offered []deck.Card) deck.Card {
	if b.random() {
		return offered[rand.IntN(len(offered))]
	}
	best := 0
	if b.worstCase() {
		bestScore := math.MinInt
		for i := range offered {
			rest := make([]deck.Card, 0, 2)
			for j, c := range offered {
				if j != i {
					rest = append(rest, c)
				}
			}
			if s := evaluate(pos.withPlaced([]deck.Card{offered[i]}, rest)); s > bestScore {
				bestScore = s
				best = i
			}
		}
		return offered[best]
	}
	for i := 1; i < len(offered); i++ {
		if pos.myUtility(offered[i].GeishaID) > pos.myUtility(offered[best].GeishaID) {
			best = i
		}
	}
	return offered[best]
}

// chooseCompetitionGroup answers an opponent's competition: the AI takes one
// group, the initiator keeps the other.
func (b *brain) chooseCompetitionGroup(pos *position, groups [2][]deck.Card) int {
	if b.random() {
		return rand.IntN(2)
	}
	if b.worstCase() {
		if evaluate(pos.withPlaced(groups[1], groups[0])) > evaluate(pos.withPlaced(groups[0], groups[1])) {
			return 1
		}
		return 0
	}
	a, bScore := 0, 0
	for _, c := range groups[0] {
		a += pos.myUtility(c.GeishaID)
	}
	for _, c := range groups[1] {
		bScore += pos.myUtility(c.GeishaID)
	}
	if bScore > a {
		return 1
	}
	return 0
}

// combinations returns every k-subset of [0,n) as index slices.
func combinations(n, k int) [][]int {
	var out [][]int
	combo := make([]int, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			out = append(out, append([]int(nil), combo...))
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			combo[depth] = i
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return out
}

// internal/game/game.go
package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/durak-live/durak/internal/models"
)

// Durak plays with the short deck: six through ace in four suits, 36 cards.
var (
	suits = []string{"hearts", "diamonds", "clubs", "spades"}
	ranks = []struct {
		Name  string
		Value int
	}{
		{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
		{"jack", 11}, {"queen", 12}, {"king", 13}, {"ace", 14},
	}
)

// HandSize is the number of cards dealt to each player at the start of a
// round.
const HandSize = 6

// Game is the stub game state constructed when a room starts playing: a
// shuffled short deck and one hand per player. Card-play rules live outside
// this package.
type Game struct {
	ID    uuid.UUID
	Deck  []*models.Card
	Hands map[uuid.UUID][]*models.Card
}

// New builds a game for the given player IDs with a freshly shuffled deck
// and empty hands.
func New(playerIDs []uuid.UUID) *Game {
	deck := newDeck()
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	hands := make(map[uuid.UUID][]*models.Card, len(playerIDs))
	for _, id := range playerIDs {
		hands[id] = []*models.Card{}
	}

	return &Game{
		ID:    uuid.New(),
		Deck:  deck,
		Hands: hands,
	}
}

// Deal moves HandSize cards from the deck into each hand, round-robin, until
// hands are full or the deck runs out.
func (g *Game) Deal() {
	ids := make([]uuid.UUID, 0, len(g.Hands))
	for id := range g.Hands {
		ids = append(ids, id)
	}

	for n := 0; n < HandSize; n++ {
		for _, id := range ids {
			if len(g.Deck) == 0 {
				return
			}
			card := g.Deck[len(g.Deck)-1]
			g.Deck = g.Deck[:len(g.Deck)-1]
			g.Hands[id] = append(g.Hands[id], card)
		}
	}
}

func newDeck() []*models.Card {
	deck := make([]*models.Card, 0, len(suits)*len(ranks))
	for _, suit := range suits {
		for _, rank := range ranks {
			deck = append(deck, &models.Card{
				ID:    uuid.New(),
				Suit:  suit,
				Rank:  rank.Name,
				Value: rank.Value,
			})
		}
	}
	return deck
}

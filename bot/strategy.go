package bot

import (
	"fmt"
	"math/rand"
	"sync"

	"voyager.com/ofc/model"
)

const (
	StrategyRandom = "random"
	StrategyGreedy = "greedy"
)

// Strategy decides where a spot's dealt cards go. The placements it returns
// must be legal for the spot.
type Strategy interface {
	Place(s *model.Spot) []model.Placement
}

// NewStrategy returns the strategy with the given name.
func NewStrategy(name string, randGen *rand.Rand) (Strategy, error) {
	switch name {
	case StrategyRandom, "":
		return NewRandomStrategy(randGen), nil
	case StrategyGreedy:
		return GreedyStrategy{}, nil
	}
	return nil, fmt.Errorf("Unknown strategy [%s]", name)
}

func room(s *model.Spot) [model.NumHands]int {
	var r [model.NumHands]int
	for h := 0; h < model.NumHands; h++ {
		r[h] = model.HandCapacity[h] - s.HandSize(h)
	}
	return r
}

// RandomStrategy puts every card into a random hand that still has room.
type RandomStrategy struct {
	lock    sync.Mutex
	randGen *rand.Rand
}

func NewRandomStrategy(randGen *rand.Rand) *RandomStrategy {
	return &RandomStrategy{randGen: randGen}
}

func (r *RandomStrategy) Place(s *model.Spot) []model.Placement {
	r.lock.Lock()
	defer r.lock.Unlock()

	free := room(s)
	placements := make([]model.Placement, 0, len(s.Dealt))
	for _, card := range s.Dealt {
		open := make([]int, 0, model.NumHands)
		for h := 0; h < model.NumHands; h++ {
			if free[h] > 0 {
				open = append(open, h)
			}
		}
		if len(open) == 0 {
			break
		}
		h := open[r.randGen.Intn(len(open))]
		free[h]--
		placements = append(placements, model.Placement{Card: card, Hand: h})
	}
	return placements
}

// GreedyStrategy fills the back, then the middle, then the front.
type GreedyStrategy struct{}

func (GreedyStrategy) Place(s *model.Spot) []model.Placement {
	free := room(s)
	placements := make([]model.Placement, 0, len(s.Dealt))
	for _, card := range s.Dealt {
		for h := 0; h < model.NumHands; h++ {
			if free[h] > 0 {
				free[h]--
				placements = append(placements, model.Placement{Card: card, Hand: h})
				break
			}
		}
	}
	return placements
}

package simulation

import (
	"fmt"
	"io/ioutil"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"voyager.com/ofc/bot"
	"voyager.com/ofc/game"
)

// Script describes a simulated run.
type Script struct {
	Table    Table       `yaml:"table"`
	Sessions int         `yaml:"sessions"`
	Seed     int64       `yaml:"seed"`
	Delays   game.Delays `yaml:"delays"`
	Players  []Player    `yaml:"players"`
}

type Table struct {
	Spots int `yaml:"spots"`
}

// Player is one bot and the spot it takes.
type Player struct {
	Name     string `yaml:"name"`
	Spot     int    `yaml:"spot"`
	Strategy string `yaml:"strategy"`
}

// NewScript seats one random bot per spot.
func NewScript(spots int, sessions int) *Script {
	s := &Script{
		Table:    Table{Spots: spots},
		Sessions: sessions,
		Delays:   game.Delays{NextGame: 10, Reset: 10},
	}
	for i := 0; i < spots; i++ {
		s.Players = append(s.Players, Player{
			Name:     fmt.Sprintf("bot-%d", i),
			Spot:     i,
			Strategy: bot.StrategyRandom,
		})
	}
	return s
}

// ReadScript reads a simulation script yaml file.
func ReadScript(fileName string) (*Script, error) {
	bytes, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading simulation script file [%s]", fileName)
	}

	script := Script{
		Sessions: 1,
		Delays:   game.Delays{NextGame: 10, Reset: 10},
	}
	err = yaml.Unmarshal(bytes, &script)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing YAML file [%s]", fileName)
	}

	err = script.Validate()
	if err != nil {
		return nil, errors.Wrapf(err, "Error validating script [%s]", fileName)
	}
	return &script, nil
}

func (s *Script) Validate() error {
	if s.Table.Spots < game.MinSpots {
		return fmt.Errorf("Invalid number of spots [%d]", s.Table.Spots)
	}
	if s.Sessions < 1 {
		return fmt.Errorf("Invalid number of sessions [%d]", s.Sessions)
	}
	if len(s.Players) != s.Table.Spots {
		return fmt.Errorf("%d players for %d spots", len(s.Players), s.Table.Spots)
	}

	spots := mapset.NewSet()
	names := mapset.NewSet()
	for _, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("Player at spot %d has no name", p.Spot)
		}
		if p.Spot < 0 || p.Spot >= s.Table.Spots {
			return fmt.Errorf("Invalid spot [%d] for player [%s]", p.Spot, p.Name)
		}
		if spots.Contains(p.Spot) {
			return fmt.Errorf("Duplicate spot [%d] in players", p.Spot)
		}
		spots.Add(p.Spot)
		if names.Contains(p.Name) {
			return fmt.Errorf("Duplicate player name [%s] in players", p.Name)
		}
		names.Add(p.Name)
		if _, err := bot.NewStrategy(p.Strategy, nil); err != nil {
			return err
		}
	}
	return nil
}

package roster

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

type slot struct {
	role Role
	lane Lane
}

var formations = map[string][]slot{
	"4-3-3": {
		{Goalkeeper, Centre},
		{FullBack, Left}, {CentreBack, Centre}, {CentreBack, Centre}, {FullBack, Right},
		{Midfielder, Centre}, {Midfielder, Centre}, {Midfielder, Centre},
		{Winger, Left}, {Striker, Centre}, {Winger, Right},
	},
	"4-4-2": {
		{Goalkeeper, Centre},
		{FullBack, Left}, {CentreBack, Centre}, {CentreBack, Centre}, {FullBack, Right},
		{Midfielder, Left}, {Midfielder, Centre}, {Midfielder, Centre}, {Midfielder, Right},
		{Striker, Centre}, {Striker, Centre},
	},
	"4-2-3-1": {
		{Goalkeeper, Centre},
		{FullBack, Left}, {CentreBack, Centre}, {CentreBack, Centre}, {FullBack, Right},
		{Midfielder, Centre}, {Midfielder, Centre},
		{Winger, Left}, {Midfielder, Centre}, {Winger, Right},
		{Striker, Centre},
	},
}

// Formations lists the shapes Generate understands.
func Formations() []string {
	names := make([]string, 0, len(formations))
	for name := range formations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rating bias per role, added to a base of 50.
var profiles = map[Role]Attributes{
	Goalkeeper: {Pace: -15, Passing: -5, Shooting: -30, Dribbling: -25, Tackling: -20, Positioning: 15, Handling: 30, Reflexes: 30},
	CentreBack: {Strength: 15, Tackling: 25, Positioning: 15, Shooting: -15, Dribbling: -10, Handling: -40, Reflexes: -40},
	FullBack:   {Pace: 15, Acceleration: 10, Stamina: 15, Tackling: 15, Passing: 5, Handling: -40, Reflexes: -40},
	Midfielder: {Stamina: 20, Passing: 20, Vision: 20, Decisions: 15, FirstTouch: 10, Handling: -40, Reflexes: -40},
	Winger:     {Pace: 25, Acceleration: 20, Dribbling: 20, Passing: 5, Tackling: -15, Handling: -40, Reflexes: -40},
	Striker:    {Shooting: 30, FirstTouch: 15, Positioning: 15, Strength: 5, Tackling: -20, Handling: -40, Reflexes: -40},
}

var (
	firstNames = []string{"Alex", "Bruno", "Caio", "Dani", "Emil", "Femi", "Gus", "Hugo", "Ivo", "Jonas", "Kofi", "Luca", "Mats", "Nico", "Omar", "Pavel"}
	lastNames  = []string{"Abara", "Berg", "Costa", "Dahl", "Eze", "Fischer", "Garay", "Holm", "Ito", "Jovic", "Kane", "Lind", "Moreau", "Novak", "Okafor", "Pires", "Quaresma", "Rossi", "Sousa", "Toure", "Umar", "Varga", "Weber", "Yilmaz"}
)

// Generate builds a deterministic team for formation. quality shifts every
// rating (0 is an average side, +20 a strong one).
func Generate(name, formation string, quality int, seed int64) (Team, error) {
	slots, ok := formations[formation]
	if !ok {
		return Team{}, fmt.Errorf("unknown formation %q (have %v)", formation, Formations())
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	team := Team{Name: name, Formation: formation}
	for i, s := range slots {
		p := Player{
			Number: i + 1,
			Role:   s.role,
			Lane:   s.lane,
			Name:   firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
		}
		bias := profiles[s.role]
		base, biased := p.Attributes.fields(), bias.fields()
		for j := range base {
			v := 50 + quality + *biased[j] + rng.IntN(25) - 12
			*base[j] = clampRating(v)
		}
		team.Players = append(team.Players, p)
	}
	team = Normalize(team)
	return team, team.Validate()
}

func clampRating(v int) int {
	switch {
	case v < MinAttribute+4:
		return MinAttribute + 4
	case v > MaxAttribute-3:
		return MaxAttribute - 3
	}
	return v
}

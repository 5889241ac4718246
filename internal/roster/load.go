package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a team from a YAML or JSON file (chosen by extension), fills
// unset ratings with DefaultRating and validates the result.
func Load(path string) (Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Team{}, fmt.Errorf("read roster %s: %w", path, err)
	}

	var team Team
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&team)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&team)
	}
	if err != nil {
		return Team{}, fmt.Errorf("decode roster %s: %w", path, err)
	}

	team = Normalize(team)
	if err := team.Validate(); err != nil {
		return Team{}, fmt.Errorf("roster %s: %w", path, err)
	}
	return team, nil
}

// Normalize fills defaults: ratings, shirt numbers and player IDs.
func Normalize(team Team) Team {
	players := make([]Player, len(team.Players))
	copy(players, team.Players)
	for i := range players {
		players[i].Attributes = players[i].Attributes.WithDefaults()
		if players[i].Number == 0 {
			players[i].Number = i + 1
		}
		if players[i].ID == "" {
			players[i].ID = fmt.Sprintf("%s-%d", slug(team.Name), players[i].Number)
		}
		if players[i].Name == "" {
			players[i].Name = players[i].ID
		}
	}
	team.Players = players
	return team
}

// Save writes a team as YAML.
func Save(path string, team Team) error {
	data, err := yaml.Marshal(team)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write roster %s: %w", path, err)
	}
	return nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "team"
	}
	return b.String()
}

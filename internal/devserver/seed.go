package devserver

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mycelian/calendar-sync/internal/eventdate"
)

// Seed is the YAML fixture loaded at startup:
//
//	users:
//	  - name: Test
//	    email: test@example.com
//	    password: "123456"
//	events:
//	  - owner: test@example.com
//	    title: Cumpleaños
//	    start: 2022-09-22T13:30:00.000Z
//	    end: 2022-09-22T15:30:00.000Z
type Seed struct {
	Users  []SeedUser  `yaml:"users"`
	Events []SeedEvent `yaml:"events"`
}

type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type SeedEvent struct {
	Owner string `yaml:"owner"`
	Title string `yaml:"title"`
	Notes string `yaml:"notes"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, err
	}
	defer f.Close()
	return DecodeSeed(f)
}

// DecodeSeed parses seed YAML, rejecting unknown fields.
func DecodeSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Seed{}, fmt.Errorf("devserver: decode seed: %w", err)
	}
	return s, nil
}

// Apply creates the seed users, then their events.
func (s *Server) Apply(seed Seed) error {
	for _, u := range seed.Users {
		if _, err := s.store.createUser(u.Name, u.Email, u.Password); err != nil {
			return fmt.Errorf("devserver: seed user %s: %w", u.Email, err)
		}
	}
	for _, e := range seed.Events {
		s.store.mu.RLock()
		owner, ok := s.store.byEmail[normalizeEmail(e.Owner)]
		s.store.mu.RUnlock()
		if !ok {
			return fmt.Errorf("devserver: seed event %q: unknown owner %s", e.Title, e.Owner)
		}
		start, err := eventdate.Parse(e.Start)
		if err != nil {
			return fmt.Errorf("devserver: seed event %q: %w", e.Title, err)
		}
		end, err := eventdate.Parse(e.End)
		if err != nil {
			return fmt.Errorf("devserver: seed event %q: %w", e.Title, err)
		}
		s.store.createEvent(event{Title: e.Title, Notes: e.Notes, Start: start, End: end, UserID: owner.ID})
	}
	s.log.Info().Int("users", len(seed.Users)).Int("events", len(seed.Events)).Msg("seed applied")
	return nil
}

// Package catalog holds the static program definitions. Programs are
// configuration, not user data: the ledger only references them by id, so the
// catalog stays an in-memory collaborator with no persistence of its own.
package catalog

import "errors"

var ErrUnknownProgram = errors.New("unknown program")

type ProgramDefinition struct {
	ID              string        `json:"id"`
	Slug            string        `json:"slug"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	Summary         string        `json:"summary"`
	Category        string        `json:"category"`
	Frequency       string        `json:"frequency"`
	DurationMinutes int           `json:"duration_minutes"`
	Mode            string        `json:"mode"`
	Units           []ProgramUnit `json:"units"`
}

type ProgramUnit struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Order     int        `json:"order"`
	Exercises []Exercise `json:"exercises"`
}

type Exercise struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	XPValue int    `json:"xp_value"`
}

// XPTotal is the award for one completed run: the sum of every exercise's
// fixed XP value across all units. It does not depend on the run's answers.
func (p ProgramDefinition) XPTotal() int {
	total := 0
	for _, unit := range p.Units {
		for _, exercise := range unit.Exercises {
			total += exercise.XPValue
		}
	}
	return total
}

type Catalog struct {
	byID map[string]ProgramDefinition
	list []ProgramDefinition
}

func New(definitions []ProgramDefinition) *Catalog {
	c := &Catalog{byID: make(map[string]ProgramDefinition, len(definitions))}
	for _, def := range definitions {
		c.byID[def.ID] = def
		// Programs are addressable by slug as well, matching the URLs the
		// frontend links from.
		c.byID[def.Slug] = def
		c.list = append(c.list, def)
	}
	return c
}

// Default returns the catalog with the built-in program definitions.
func Default() *Catalog {
	return New(programDefinitions)
}

func (c *Catalog) Lookup(programID string) (ProgramDefinition, error) {
	def, ok := c.byID[programID]
	if !ok {
		return ProgramDefinition{}, ErrUnknownProgram
	}
	return def, nil
}

func (c *Catalog) List() []ProgramDefinition {
	out := make([]ProgramDefinition, len(c.list))
	copy(out, c.list)
	return out
}

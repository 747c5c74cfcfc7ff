package rules

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/oklog/ulid/v2"
)

// Rand is the randomness Pick needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Pool partitions one language's rules into available and revealed. Available
// stays sorted by ID; revealed keeps reveal order. A Pool is not safe for
// concurrent use.
type Pool struct {
	id        ulid.ULID
	lang      string
	available []Rule
	revealed  []Rule
}

// NewPool starts with every rule available. Duplicate IDs keep the first
// occurrence.
func NewPool(lang string, rules []Rule) *Pool {
	seen := make(map[int]bool, len(rules))
	avail := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		avail = append(avail, r)
	}
	sortByID(avail)
	return &Pool{id: ulid.Make(), lang: lang, available: avail}
}

// ID identifies this pool session.
func (p *Pool) ID() ulid.ULID { return p.id }

// Language returns the tag the pool was built for.
func (p *Pool) Language() string { return p.lang }

// Available returns a copy of the undrawn rules in ID order.
func (p *Pool) Available() []Rule { return slices.Clone(p.available) }

// Revealed returns a copy of the drawn rules in draw order.
func (p *Pool) Revealed() []Rule { return slices.Clone(p.revealed) }

// Pick chooses an available rule uniformly without moving it. ok is false
// when nothing is available. A nil rng uses the process-wide generator.
func (p *Pool) Pick(rng Rand) (Rule, bool) {
	if len(p.available) == 0 {
		return Rule{}, false
	}
	if rng == nil {
		rng = globalRand{}
	}
	return p.available[rng.IntN(len(p.available))], true
}

// Draw picks a rule and reveals it.
func (p *Pool) Draw(rng Rand) (Rule, bool) {
	r, ok := p.Pick(rng)
	if !ok {
		return Rule{}, false
	}
	if err := p.Reveal(r.ID); err != nil {
		return Rule{}, false
	}
	return r, true
}

// Reveal moves the available rule id to the end of revealed.
func (p *Pool) Reveal(id int) error {
	i := indexOf(p.available, id)
	if i < 0 {
		return fmt.Errorf("rule %d is not available", id)
	}
	r := p.available[i]
	p.available = slices.Delete(p.available, i, i+1)
	p.revealed = append(p.revealed, r)
	return nil
}

// ReturnOne moves the revealed rule id back into available at its ID position.
func (p *Pool) ReturnOne(id int) error {
	i := indexOf(p.revealed, id)
	if i < 0 {
		return fmt.Errorf("rule %d is not revealed", id)
	}
	r := p.revealed[i]
	p.revealed = slices.Delete(p.revealed, i, i+1)
	at, _ := slices.BinarySearchFunc(p.available, r.ID, func(a Rule, id int) int { return a.ID - id })
	p.available = slices.Insert(p.available, at, r)
	return nil
}

// ReturnAll moves every revealed rule back into available.
func (p *Pool) ReturnAll() {
	p.available = append(p.available, p.revealed...)
	p.revealed = nil
	sortByID(p.available)
}

func indexOf(rules []Rule, id int) int {
	return slices.IndexFunc(rules, func(r Rule) bool { return r.ID == id })
}

func sortByID(rules []Rule) {
	slices.SortFunc(rules, func(a, b Rule) int { return a.ID - b.ID })
}

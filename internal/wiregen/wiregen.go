// Package wiregen produces synthetic dpa-digitalwires style articles used to
// fill the entry store at startup.
package wiregen

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	digits     = "0123456789"
	idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" + digits

	entryIDLen  = 41
	maxVersions = 6

	versionCreatedLayout = "2006-01-02T15:04:05-0700"
	updatedLayout        = "2006-01-02T15:04:05Z"
)

// Epoch is the lower bound for generated timestamps.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Article is the minimal wireQ article shape.
type Article struct {
	URN            string `json:"urn"`
	EntryID        string `json:"entry_id"`
	Version        int    `json:"version"`
	VersionCreated string `json:"version_created"`
	Updated        string `json:"updated"`
}

// Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New returns a Generator. A zero seed seeds from the clock; now defaults to
// time.Now.
func New(seed int64, now func() time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Generate returns n articles. Articles are grouped by URN with 1 to 6
// consecutive versions each; version_created never decreases within a URN and
// updated is never before version_created.
func (g *Generator) Generate(n int) []Article {
	out := make([]Article, 0, n)
	now := g.now().UTC()
	for len(out) < n {
		urn := g.urn()
		versions := 1 + g.rng.Intn(maxVersions)
		lower := Epoch
		for v := 1; v <= versions && len(out) < n; v++ {
			created := g.between(lower, now)
			lower = created
			updated := g.between(created, now)
			out = append(out, Article{
				URN:            urn,
				EntryID:        g.randomString(entryIDLen, idAlphabet),
				Version:        v,
				VersionCreated: created.Format(versionCreatedLayout),
				Updated:        updated.Format(updatedLayout),
			})
		}
	}
	return out
}

// Payloads returns n generated articles encoded as JSON.
func (g *Generator) Payloads(n int) ([]json.RawMessage, error) {
	articles := g.Generate(n)
	out := make([]json.RawMessage, len(articles))
	for i := range articles {
		b, err := json.Marshal(articles[i])
		if err != nil {
			return nil, fmt.Errorf("encode article %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func (g *Generator) urn() string {
	return "urn:newsml:dpa.com:" + g.randomString(8, digits) + ":" +
		g.randomString(6, digits) + "-" + g.randomString(2, digits) + "-" + g.randomString(6, digits)
}

// between returns a second-precision time in [lo, hi].
func (g *Generator) between(lo, hi time.Time) time.Time {
	span := hi.Unix() - lo.Unix()
	if span <= 0 {
		return lo.Truncate(time.Second)
	}
	return time.Unix(lo.Unix()+g.rng.Int63n(span+1), 0).UTC()
}

func (g *Generator) randomString(n int, alphabet string) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[g.rng.Intn(len(alphabet))])
	}
	return b.String()
}

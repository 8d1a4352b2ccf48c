// Package cluster folds flagged method pairs into groups, one per suggested
// superclass.
package cluster

import (
	"github.com/panbanda/hoist/pkg/models"
	"github.com/panbanda/hoist/pkg/similarity"
)

// Mode selects how pairs are grouped.
type Mode string

const (
	// ModeFirstSeen keys groups by the first method of each pair. A pair
	// joins an existing group only when its first method already keys one.
	ModeFirstSeen Mode = "first_seen"
	// ModeConnected groups every method transitively linked by a pair.
	ModeConnected Mode = "connected"
)

// ParseMode converts a configuration value to a Mode. The empty string
// selects ModeFirstSeen.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFirstSeen:
		return ModeFirstSeen, nil
	case ModeConnected:
		return ModeConnected, nil
	default:
		return "", &similarity.ConfigurationError{
			Field:  "clustering.mode",
			Value:  s,
			Reason: "must be one of first_seen, connected",
		}
	}
}

// Clusterer groups opportunities.
type Clusterer struct {
	mode Mode
}

// New creates a clusterer for mode. The empty mode selects ModeFirstSeen;
// any other unknown mode is a *similarity.ConfigurationError.
func New(mode Mode) (*Clusterer, error) {
	m, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	return &Clusterer{mode: m}, nil
}

// Mode returns the grouping mode in effect.
func (c *Clusterer) Mode() Mode {
	return c.mode
}

// Cluster groups opps, which must be in detector emission order.
func (c *Clusterer) Cluster(opps []models.Opportunity) []*models.RelationshipGroup {
	if c.mode == ModeConnected {
		return connected(opps)
	}
	return firstSeen(opps)
}

func firstSeen(opps []models.Opportunity) []*models.RelationshipGroup {
	byKey := make(map[*models.MethodSignature]*models.RelationshipGroup)
	var groups []*models.RelationshipGroup

	for _, o := range opps {
		if g, ok := byKey[o.A.Method]; ok {
			g.Participants = append(g.Participants, o.B)
			continue
		}
		g := &models.RelationshipGroup{
			Representative: o.A.Method,
			Participants:   []models.Occurrence{o.A, o.B},
		}
		byKey[o.A.Method] = g
		groups = append(groups, g)
	}
	return groups
}

// connected runs union-find over methods numbered by first appearance. The
// smaller index always becomes the root, so each root is the earliest method
// of its component.
func connected(opps []models.Opportunity) []*models.RelationshipGroup {
	index := make(map[*models.MethodSignature]int)
	var nodes []models.Occurrence
	id := func(o models.Occurrence) int {
		if i, ok := index[o.Method]; ok {
			return i
		}
		index[o.Method] = len(nodes)
		nodes = append(nodes, o)
		return len(nodes) - 1
	}

	var parent []int
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for _, o := range opps {
		a, b := id(o.A), id(o.B)
		for len(parent) < len(nodes) {
			parent = append(parent, len(parent))
		}
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			parent[rb] = ra
		case rb < ra:
			parent[ra] = rb
		}
	}

	byRoot := make(map[int]*models.RelationshipGroup)
	var groups []*models.RelationshipGroup
	for i, n := range nodes {
		root := find(i)
		g, ok := byRoot[root]
		if !ok {
			g = &models.RelationshipGroup{Representative: n.Method}
			byRoot[root] = g
			groups = append(groups, g)
		}
		g.Participants = append(g.Participants, n)
	}
	return groups
}

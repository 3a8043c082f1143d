// Package relation computes co-occurrence statistics over historical tag
// usage: relation strengths, clusters, and tag suggestions. Everything here
// is a pure function of the usage history — suggestions only, no mutation.
package relation

import (
	"sort"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Relation is an undirected pair of tags with an association strength.
type Relation struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Strength float64 `json:"strength"`
}

// Suggestion ranks a candidate tag against a selected set.
type Suggestion struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// Cluster is a group of mutually related tags.
type Cluster struct {
	Tags     []string `json:"tags"`
	Center   string   `json:"center"`   // Tag with the most intra-cluster edges
	Strength float64  `json:"strength"` // Mean pairwise strength
}

// Analyzer holds symmetric co-occurrence counts and per-tag frequencies
// built from usage history.
type Analyzer struct {
	cooccur map[string]map[string]int
	freq    map[string]int
}

// NewAnalyzer ingests usage history. Tags repeated within a single record
// count once; each unordered pair in a record increments its co-occurrence.
func NewAnalyzer(history []domain.TagUsage) *Analyzer {
	a := &Analyzer{
		cooccur: make(map[string]map[string]int),
		freq:    make(map[string]int),
	}
	for _, record := range history {
		unique := dedupe(record.Tags)
		for _, t := range unique {
			a.freq[t]++
		}
		for i := 0; i < len(unique); i++ {
			for j := i + 1; j < len(unique); j++ {
				a.bump(unique[i], unique[j])
				a.bump(unique[j], unique[i])
			}
		}
	}
	return a
}

func (a *Analyzer) bump(x, y string) {
	m := a.cooccur[x]
	if m == nil {
		m = make(map[string]int)
		a.cooccur[x] = m
	}
	m[y]++
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Frequency returns how many usage records contained the tag.
func (a *Analyzer) Frequency(tag string) int {
	return a.freq[tag]
}

// Strength returns the Jaccard association between two tags:
// cooccur / (freq(a) + freq(b) - cooccur). Zero when either tag is unseen.
func (a *Analyzer) Strength(x, y string) float64 {
	both := a.cooccur[x][y]
	union := a.freq[x] + a.freq[y] - both
	if union == 0 {
		return 0
	}
	return float64(both) / float64(union)
}

// Relations returns every pair whose strength meets threshold, strongest
// first. Pairs are reported once with A < B.
func (a *Analyzer) Relations(threshold float64) []Relation {
	var out []Relation
	for x, neighbors := range a.cooccur {
		for y := range neighbors {
			if x >= y {
				continue
			}
			s := a.Strength(x, y)
			if s >= threshold {
				out = append(out, Relation{A: x, B: y, Strength: s})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// SuggestTags ranks unselected tags by their summed strength to the selected
// set, descending. Tags below threshold against every selected tag are
// omitted. limit caps the result; zero means no cap.
func (a *Analyzer) SuggestTags(selected []string, threshold float64, limit int) []Suggestion {
	chosen := make(map[string]bool, len(selected))
	for _, t := range selected {
		chosen[t] = true
	}

	scores := make(map[string]float64)
	for _, sel := range selected {
		for candidate := range a.cooccur[sel] {
			if chosen[candidate] {
				continue
			}
			if s := a.Strength(sel, candidate); s >= threshold {
				scores[candidate] += s
			}
		}
	}

	out := make([]Suggestion, 0, len(scores))
	for tag, score := range scores {
		out = append(out, Suggestion{Tag: tag, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FindClusters groups tags by breadth-first expansion over the strength
// graph. Components smaller than minSize are dropped; expansion stops once a
// cluster reaches maxSize. The center is the member with the most
// intra-cluster edges; cluster strength is the mean pairwise strength.
func (a *Analyzer) FindClusters(threshold float64, minSize, maxSize int) []Cluster {
	adjacency := make(map[string][]string)
	for _, r := range a.Relations(threshold) {
		adjacency[r.A] = append(adjacency[r.A], r.B)
		adjacency[r.B] = append(adjacency[r.B], r.A)
	}

	nodes := make([]string, 0, len(adjacency))
	for n := range adjacency {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	visited := make(map[string]bool)
	var clusters []Cluster

	for _, start := range nodes {
		if visited[start] {
			continue
		}
		members := a.expand(start, adjacency, visited, maxSize)
		if len(members) < minSize {
			continue
		}
		clusters = append(clusters, a.describe(members, adjacency, threshold))
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Strength != clusters[j].Strength {
			return clusters[i].Strength > clusters[j].Strength
		}
		return clusters[i].Center < clusters[j].Center
	})
	return clusters
}

func (a *Analyzer) expand(start string, adjacency map[string][]string, visited map[string]bool, maxSize int) []string {
	var members []string
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		members = append(members, cur)
		if maxSize > 0 && len(members) >= maxSize {
			break
		}
		neighbors := append([]string{}, adjacency[cur]...)
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	sort.Strings(members)
	return members
}

func (a *Analyzer) describe(members []string, adjacency map[string][]string, threshold float64) Cluster {
	inCluster := make(map[string]bool, len(members))
	for _, m := range members {
		inCluster[m] = true
	}

	center := ""
	maxEdges := -1
	var total float64
	pairs := 0
	for i, m := range members {
		edges := 0
		for _, n := range adjacency[m] {
			if inCluster[n] {
				edges++
			}
		}
		if edges > maxEdges {
			maxEdges = edges
			center = m
		}
		for j := i + 1; j < len(members); j++ {
			total += a.Strength(m, members[j])
			pairs++
		}
	}

	strength := 0.0
	if pairs > 0 {
		strength = total / float64(pairs)
	}
	return Cluster{Tags: members, Center: center, Strength: strength}
}

// Package main provides a tool to seed the database with test taxonomy data.
//
// This creates a small tag vocabulary with hierarchy edges, aliases, and two
// weeks of usage history to exercise typeahead, suggestions, and clustering.
//
// Usage:
//
//	DB_PATH=~/TagWarden/data/tags.db go run ./cmd/seed
//	DB_PATH=~/TagWarden/data/tags.db go run ./cmd/seed --create-grants  # Also grant governance roles
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
)

var createGrants = flag.Bool("create-grants", false, "Create governance grants for test users")

// Seed vocabulary. Parents appear before children so edge creation never
// references a missing tag.
var tags = []string{
	"fiction", "non-fiction",
	"science-fiction", "fantasy", "mystery", "thriller",
	"space-opera", "cyberpunk", "epic-fantasy", "urban-fantasy",
	"history", "biography", "science", "philosophy",
}

var edges = [][2]string{
	{"fiction", "science-fiction"},
	{"fiction", "fantasy"},
	{"fiction", "mystery"},
	{"fiction", "thriller"},
	{"science-fiction", "space-opera"},
	{"science-fiction", "cyberpunk"},
	{"fantasy", "epic-fantasy"},
	{"fantasy", "urban-fantasy"},
	{"non-fiction", "history"},
	{"non-fiction", "biography"},
	{"non-fiction", "science"},
	{"non-fiction", "philosophy"},
}

var aliases = map[string]string{
	"sf":     "science-fiction",
	"sci-fi": "science-fiction",
	"scifi":  "science-fiction",
	"bio":    "biography",
}

// Usage pools. Each seeded event samples one pool so co-occurrence has real
// structure for the suggestion engine to find.
var pools = [][]string{
	{"fiction", "science-fiction", "space-opera"},
	{"fiction", "science-fiction", "cyberpunk"},
	{"fiction", "fantasy", "epic-fantasy"},
	{"fiction", "fantasy", "urban-fantasy"},
	{"fiction", "mystery", "thriller"},
	{"non-fiction", "history", "biography"},
	{"non-fiction", "science", "philosophy"},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/TagWarden/data/tags.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	created := 0
	for _, name := range tags {
		_, wasCreated, err := s.FindOrCreateTag(ctx, name)
		if err != nil {
			log.Fatalf("Failed to create tag %s: %v", name, err)
		}
		if wasCreated {
			created++
		}
	}
	fmt.Printf("Tags ready: %d total, %d new\n", len(tags), created)

	for _, e := range edges {
		err := s.AddEdge(ctx, &domain.HierarchyEdge{
			Parent:    e[0],
			Child:     e[1],
			CreatedBy: "seed",
			CreatedAt: time.Now(),
		})
		if err != nil && !errors.Is(err, store.ErrEdgeExists) {
			log.Fatalf("Failed to add edge %s -> %s: %v", e[0], e[1], err)
		}
	}
	fmt.Printf("Hierarchy edges ready: %d\n", len(edges))

	for alias, canonical := range aliases {
		a := &domain.TagAlias{
			ID:        id.MustGenerate("alias"),
			Alias:     alias,
			Canonical: canonical,
			CreatedAt: time.Now(),
		}
		if err := s.Aliases.Create(ctx, a.ID, a); err != nil {
			log.Printf("Alias %s skipped: %v", alias, err)
		}
	}
	fmt.Printf("Aliases ready: %d\n", len(aliases))

	// Create usage events over the past 14 days.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	eventsCreated := 0

	for day := 13; day >= 0; day-- {
		// 1-4 tagging events per day, with quiet days for realism.
		if day > 1 && rng.Float32() > 0.8 {
			continue
		}
		numEvents := 1 + rng.Intn(4)
		for range numEvents {
			pool := pools[rng.Intn(len(pools))]
			// Use 2 or all 3 tags from the pool.
			tagSet := pool
			if rng.Float32() > 0.5 {
				tagSet = pool[:2]
			}

			ts := now.AddDate(0, 0, -day).Add(-time.Duration(rng.Intn(12)) * time.Hour)
			u := &domain.TagUsage{
				ID:        id.MustGenerate("usage"),
				Tags:      tagSet,
				Timestamp: ts,
			}
			if err := s.AppendUsage(ctx, u); err != nil {
				log.Fatalf("Failed to append usage: %v", err)
			}
			eventsCreated++
		}
	}
	fmt.Printf("Usage events created: %d\n", eventsCreated)

	if *createGrants {
		seedGrants(ctx, s)
	}

	fmt.Println("Done.")
}

// seedGrants sets up a small governance structure: alice administers the two
// roots, bob can edit fiction, carol can view non-fiction.
func seedGrants(ctx context.Context, s *store.Store) {
	grants := []domain.TagPermission{
		{Tag: "fiction", UserID: "alice", Role: domain.RoleAdmin, UserName: "Alice"},
		{Tag: "non-fiction", UserID: "alice", Role: domain.RoleAdmin, UserName: "Alice"},
		{Tag: "fiction", UserID: "bob", Role: domain.RoleEditor, UserName: "Bob"},
		{Tag: "non-fiction", UserID: "carol", Role: domain.RoleViewer, UserName: "Carol"},
	}

	for i := range grants {
		p := grants[i]
		p.ID = id.MustGenerate("perm")
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now()
		if err := s.SetPermission(ctx, &p, "seed"); err != nil {
			log.Printf("Grant %s/%s skipped: %v", p.Tag, p.UserID, err)
		}
	}
	fmt.Printf("Governance grants created: %d\n", len(grants))
}

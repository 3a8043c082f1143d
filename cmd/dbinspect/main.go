package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Record prefixes as laid out by internal/store. Index keys are counted
// separately so drift between records and their indexes is visible.
var recordPrefixes = []string{
	"tag:",
	"alias:",
	"edge:",
	"ver:",
	"perm:",
	"audit:",
	"usage:",
	"rule:",
	"tpl:",
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/TagWarden/data/tags.db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	counts := make(map[string]int)
	indexKeys := 0
	var topTags []*domain.Tag

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			if strings.HasPrefix(key, "idx:") || strings.Contains(key, ":idx:") {
				indexKeys++
				continue
			}

			for _, prefix := range recordPrefixes {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				counts[prefix]++
				if prefix == "tag:" {
					err := item.Value(func(val []byte) error {
						var t domain.Tag
						if err := json.Unmarshal(val, &t); err != nil {
							return err
						}
						topTags = append(topTags, &t)
						return nil
					})
					if err != nil {
						log.Printf("Error reading tag %s: %v", key, err)
					}
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	sort.Slice(topTags, func(i, j int) bool {
		return topTags[i].UseCount > topTags[j].UseCount
	})

	fmt.Println("Most used tags:")
	for i, t := range topTags {
		if i >= 10 {
			fmt.Printf("  ... and %d more tags\n", len(topTags)-10)
			break
		}
		fmt.Printf("  %-30s uses=%-6d created=%s\n",
			t.Name, t.UseCount, t.CreatedAt.Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Println("=== Summary ===")
	fmt.Printf("Tags:         %d\n", counts["tag:"])
	fmt.Printf("Aliases:      %d\n", counts["alias:"])
	fmt.Printf("Edges:        %d\n", counts["edge:"])
	fmt.Printf("Versions:     %d\n", counts["ver:"])
	fmt.Printf("Permissions:  %d\n", counts["perm:"])
	fmt.Printf("Audit events: %d\n", counts["audit:"])
	fmt.Printf("Usage records:%d\n", counts["usage:"])
	fmt.Printf("Rules:        %d\n", counts["rule:"])
	fmt.Printf("Templates:    %d\n", counts["tpl:"])
	fmt.Printf("Index keys:   %d\n", indexKeys)
}

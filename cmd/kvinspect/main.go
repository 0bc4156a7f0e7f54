// Command kvinspect opens the record store read-only and reports what each
// scope holds. Useful for checking what a sync server has persisted without
// going through the API.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "Quill", "data")
	}

	opts := badger.DefaultOptions(filepath.Join(dataPath, "records")).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Record Store Inspection ===")
	fmt.Println()

	totalRecords := 0
	legacyTables := 0

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("records:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(iterOpts.Prefix); it.ValidForPrefix(iterOpts.Prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var records []map[string]any
				if err := json.Unmarshal(val, &records); err != nil {
					fmt.Printf("%-50s  (unparsable: %v)\n", key, err)
					return nil
				}

				kind, scope := describeKey(key)
				if kind == "legacy" {
					legacyTables++
				}
				totalRecords += len(records)
				fmt.Printf("%-50s  %-6s  scope=%-20s  %d record(s)\n", key, kind, scope, len(records))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan database: %v", err)
	}

	fmt.Println()
	fmt.Printf("Total records: %d\n", totalRecords)
	if legacyTables > 0 {
		fmt.Printf("Legacy unsplit tables awaiting migration: %d\n", legacyTables)
	}
}

// describeKey classifies a storage key as a poem table, book table, or a
// legacy unsplit table, and extracts its scope.
func describeKey(key string) (kind, scope string) {
	rest := strings.TrimPrefix(key, "records:")
	switch {
	case strings.HasPrefix(rest, "poems:"):
		return "poems", strings.TrimPrefix(rest, "poems:")
	case strings.HasPrefix(rest, "books:"):
		return "books", strings.TrimPrefix(rest, "books:")
	default:
		return "legacy", rest
	}
}

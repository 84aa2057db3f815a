package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"moodmatch/domain"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "profile:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "User ID", "Nickname", "Title", "Emotion", "Color", "Stats"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				var snapshot domain.ProfileSnapshot
				if err := json.Unmarshal(v, &snapshot); err != nil {
					// Log the error and keep scanning instead of stopping the script
					fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
					return nil
				}

				table.Append([]string{
					rawKey,
					snapshot.UserID,
					snapshot.Nickname,
					snapshot.Title,
					snapshot.Emotion,
					snapshot.EmotionColor,
					formatStats(snapshot.EmotionStats),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// formatStats renders an emotion histogram as "joy:4 calm:2", stable order.
func formatStats(stats map[string]int) string {
	emotions := lo.Keys(stats)
	sort.Strings(emotions)
	parts := lo.Map(emotions, func(emotion string, _ int) string {
		return fmt.Sprintf("%s:%d", emotion, stats[emotion])
	})
	return strings.Join(parts, " ")
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}

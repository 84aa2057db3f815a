package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"

	"moodmatch/domain"
	"moodmatch/profile"
)

// Seeds a handful of diary profiles into the badger store so the server
// has something to decorate matched payloads with during local runs.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error while opening Badger: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	store := profile.NewStore(db, slog.Default())

	samples := []domain.ProfileSnapshot{
		{
			UserID:       "alice@example.com",
			Nickname:     "Alice",
			Title:        "Early Bird",
			Emotion:      "joy",
			EmotionColor: "#f4d35e",
			EmotionStats: map[string]int{"joy": 9, "calm": 4, "sadness": 1},
			ProfileImage: "alice.png",
		},
		{
			UserID:       "bob@example.com",
			Nickname:     "Bob",
			Title:        "Night Owl",
			Emotion:      "calm",
			EmotionColor: "#88c0d0",
			EmotionStats: map[string]int{"calm": 12, "joy": 3},
			ProfileImage: "bob.png",
		},
		{
			UserID:       "carol@example.com",
			Nickname:     "Carol",
			Title:        "Storm Chaser",
			Emotion:      "anger",
			EmotionColor: "#bf616a",
			EmotionStats: map[string]int{"anger": 6, "joy": 2, "calm": 2},
			ProfileImage: "carol.png",
		},
	}

	for _, snapshot := range samples {
		if err := store.Put(snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store %s: %v\n", snapshot.UserID, err)
			os.Exit(1)
		}
		fmt.Printf("Stored profile: %s (%s)\n", snapshot.UserID, snapshot.Nickname)
	}

	fmt.Printf("\nSeeded %d profiles into %s\n", len(samples), *dbPath)
}

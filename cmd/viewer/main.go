package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"moodmatch/domain"
	"moodmatch/internal"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the server) holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Start the debug server on its own
	stats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)
	internal.StartDebugServer(db, config.DebugPort, "/inspect", ProfileMapper, stats)

	select {}
}

// ProfileMapper decodes a stored snapshot into a viewer row.
func ProfileMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var snapshot domain.ProfileSnapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		return row
	}

	row.UserID = snapshot.UserID
	row.Nickname = snapshot.Nickname
	row.Title = snapshot.Title
	row.Emotion = snapshot.Emotion
	row.Color = snapshot.EmotionColor

	emotions := make([]string, 0, len(snapshot.EmotionStats))
	for emotion := range snapshot.EmotionStats {
		emotions = append(emotions, emotion)
	}
	sort.Strings(emotions)
	parts := make([]string, 0, len(emotions))
	for _, emotion := range emotions {
		parts = append(parts, fmt.Sprintf("%s:%d", emotion, snapshot.EmotionStats[emotion]))
	}
	row.Stats = strings.Join(parts, " ")

	return row
}

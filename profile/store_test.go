package profile

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"moodmatch/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStore_PutAndFetch(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t), slog.Default())

	snapshot := domain.ProfileSnapshot{
		UserID:       "user-1",
		Nickname:     "Sunny",
		Title:        "Early Bird",
		Emotion:      "joy",
		EmotionColor: "#FFD166",
		EmotionStats: map[string]int{"joy": 12, "sadness": 3},
		ProfileImage: "https://cdn.example.com/u/1.png",
	}

	// When a snapshot is stored and fetched back
	req.NoError(store.Put(snapshot))
	fetched, found, err := store.Fetch("user-1")

	// Then the round trip is lossless
	req.NoError(err)
	req.True(found)
	req.Equal(snapshot, fetched)
}

func TestStore_FetchUnknownUser(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t), slog.Default())

	_, found, err := store.Fetch("nobody")

	req.NoError(err)
	req.False(found)
}

func TestStore_PutRejectsEmptyUserID(t *testing.T) {
	store := NewStore(openTestDB(t), slog.Default())
	require.Error(t, store.Put(domain.ProfileSnapshot{Nickname: "NoID"}))
}

func TestStore_ForEach(t *testing.T) {
	req := require.New(t)
	store := NewStore(openTestDB(t), slog.Default())

	for _, id := range []string{"a", "b", "c"} {
		req.NoError(store.Put(domain.ProfileSnapshot{UserID: id, Nickname: "N-" + id}))
	}

	var seen []string
	req.NoError(store.ForEach(func(s domain.ProfileSnapshot) error {
		seen = append(seen, s.UserID)
		return nil
	}))
	req.ElementsMatch([]string{"a", "b", "c"}, seen)
}

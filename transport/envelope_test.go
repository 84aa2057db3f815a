package transport

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"moodmatch/domain"
	"moodmatch/domain/event"
)

func TestDecodeEnvelope_RejectsMissingEventName(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEnvelope([]byte(`{"data":{}}`))
	req.Error(err)

	_, err = DecodeEnvelope([]byte(`not json`))
	req.Error(err)
}

func TestDecodeChat_ValidatesPayload(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()

	// Given a well-formed chat frame
	raw, err := json.Marshal(ChatPayload{RoomID: roomID, User: "Alice", Text: "hello"})
	req.NoError(err)

	payload, err := DecodeChat(raw)
	req.NoError(err)
	req.Equal(roomID, payload.RoomID)
	req.Equal("hello", payload.Text)

	// Then an empty text is refused
	raw, err = json.Marshal(ChatPayload{RoomID: roomID, User: "Alice"})
	req.NoError(err)
	_, err = DecodeChat(raw)
	req.Error(err)

	// And a missing room id is refused
	_, err = DecodeChat([]byte(`{"user":"Alice","text":"hello"}`))
	req.Error(err)
}

func TestEncodeEvent_MatchedCarriesPartnerProfile(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()

	frame, err := EncodeEvent(event.Matched{
		Room: roomID,
		Partner: domain.ProfileSnapshot{
			UserID:       "bob@example.com",
			Nickname:     "Bob",
			Title:        "Night Owl",
			Emotion:      "calm",
			EmotionColor: "#88c0d0",
			EmotionStats: map[string]int{"calm": 12, "joy": 3},
			ProfileImage: "bob.png",
		},
	})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("matched", env.Event)

	var payload MatchedPayload
	req.NoError(json.Unmarshal(env.Data, &payload))
	req.Equal(roomID, payload.RoomID)
	req.Equal("Bob", payload.PartnerNickname)
	req.Equal("#88c0d0", payload.PartnerEmotionColor)
	req.Equal(12, payload.PartnerEmotionStats["calm"])
}

func TestEncodeEvent_NoticeEvents(t *testing.T) {
	req := require.New(t)

	frame, err := EncodeEvent(event.PartnerLeft{Room: uuid.New(), Message: "gone"})
	req.NoError(err)
	req.JSONEq(`{"event":"userLeft","data":{"message":"gone"}}`, string(frame))

	frame, err = EncodeEvent(event.ChatFailed{Room: uuid.New(), Message: "dropped"})
	req.NoError(err)
	req.JSONEq(`{"event":"chatFailed","data":{"message":"dropped"}}`, string(frame))
}

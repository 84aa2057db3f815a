package e2e

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"moodmatch/auth"
	"moodmatch/transport"
)

type testMatchChatSuite struct {
	BaseWSSuite
}

func TestMatchChatSuite(t *testing.T) {
	suite.Run(t, &testMatchChatSuite{})
}

// TestFullMatchChatFlow runs the happy path against a live server:
// two connections request a match, exchange one message each, then one
// leaves and the other is notified.
func (s *testMatchChatSuite) TestFullMatchChatFlow() {
	verifier := auth.NewVerifier(s.Config.JWTSecret)
	token, err := verifier.Issue("e2e-user@example.com", "E2E", time.Minute)
	s.Require().NoError(err)

	connA := s.WSConn(s.T(), "Connection A (tokened)", token)
	defer connA.Close()
	connB := s.WSConn(s.T(), "Connection B (guest)", "")
	defer connB.Close()

	var matchedA, matchedB transport.MatchedPayload

	// --- STEP 1: MATCHING ---
	s.Run("Step 1: Both sides request a match and get the same room", func() {
		s.SendEvent(s.T(), connA, transport.Envelope{Event: transport.EventStartMatching})
		s.SendEvent(s.T(), connB, transport.Envelope{Event: transport.EventStartMatching})

		s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connA, "matched", 10*time.Second), &matchedA))
		s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connB, "matched", 10*time.Second), &matchedB))
		s.Require().Equal(matchedA.RoomID, matchedB.RoomID)
	})

	// --- STEP 2: RELAY ---
	s.Run("Step 2: A message travels to the partner only", func() {
		payload, err := json.Marshal(transport.ChatPayload{
			RoomID: matchedA.RoomID, User: "E2E", Text: "hello from A",
		})
		s.Require().NoError(err)
		s.SendEvent(s.T(), connA, transport.Envelope{Event: transport.EventChat, Data: payload})

		var chat transport.ChatOutPayload
		s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connB, "chat", 10*time.Second), &chat))
		s.Require().Equal("hello from A", chat.Text)
		s.Require().Equal("E2E", chat.User)
	})

	// --- STEP 3: LEAVE ---
	s.Run("Step 3: Explicit leave notifies the partner", func() {
		s.SendEvent(s.T(), connA, transport.Envelope{Event: transport.EventUserDisconnect})

		var notice transport.NoticePayload
		s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connB, "userLeft", 10*time.Second), &notice))
		s.Require().NotEmpty(notice.Message)
	})
}

// TestCancelBeforeMatch verifies that a cancelled request never pairs.
func (s *testMatchChatSuite) TestCancelBeforeMatch() {
	connA := s.WSConn(s.T(), "Connection A", "")
	defer connA.Close()
	connB := s.WSConn(s.T(), "Connection B", "")
	defer connB.Close()
	connC := s.WSConn(s.T(), "Connection C", "")
	defer connC.Close()

	// A queues then cancels; B and C queue and must pair with each other
	s.SendEvent(s.T(), connA, transport.Envelope{Event: transport.EventStartMatching})
	s.SendEvent(s.T(), connA, transport.Envelope{Event: transport.EventCancelMatch})
	time.Sleep(200 * time.Millisecond)

	s.SendEvent(s.T(), connB, transport.Envelope{Event: transport.EventStartMatching})
	s.SendEvent(s.T(), connC, transport.Envelope{Event: transport.EventStartMatching})

	var matchedB, matchedC transport.MatchedPayload
	s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connB, "matched", 10*time.Second), &matchedB))
	s.Require().NoError(json.Unmarshal(s.WaitEvent(s.T(), connC, "matched", 10*time.Second), &matchedC))
	s.Require().Equal(matchedB.RoomID, matchedC.RoomID)
}

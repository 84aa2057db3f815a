package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"

	"moodmatch/transport"
)

type Config struct {
	ServerAddr string        `envconfig:"SERVER_ADDR" default:"localhost:8080"`
	Pairs      int           `envconfig:"TESTER_PAIRS" default:"5"`
	Messages   int           `envconfig:"TESTER_MESSAGES" default:"3"`
	Timeout    time.Duration `envconfig:"TESTER_TIMEOUT" default:"15s"`
	Colours    bool          `envconfig:"TESTER_COLOURS" default:"true"`
}

type pairResult struct {
	pair         int
	matchLatency time.Duration
	chatLatency  time.Duration
	err          error
}

// Load driver: opens N pairs of connections against a running server,
// matches each pair, exchanges messages, leaves, and reports latencies.
func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	banner(cfg, fmt.Sprintf("moodmatch tester: %d pairs against %s", cfg.Pairs, cfg.ServerAddr))

	results := make([]pairResult, cfg.Pairs)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Pairs; i++ {
		wg.Add(1)
		go func(pair int) {
			defer wg.Done()
			results[pair] = runPair(cfg, pair)
		}(i)
	}
	wg.Wait()

	// Report
	failures := 0
	var totalMatch, totalChat time.Duration
	for _, res := range results {
		if res.err != nil {
			failures++
			printErr(cfg, fmt.Sprintf("pair %d: %v", res.pair, res.err))
			continue
		}
		totalMatch += res.matchLatency
		totalChat += res.chatLatency
		fmt.Printf("pair %d: match=%v first-chat=%v\n", res.pair, res.matchLatency, res.chatLatency)
	}

	ok := cfg.Pairs - failures
	banner(cfg, "--- [Result] ---")
	fmt.Printf("Pairs: %d ok, %d failed\n", ok, failures)
	if ok > 0 {
		fmt.Printf("Avg match latency: %v\n", totalMatch/time.Duration(ok))
		fmt.Printf("Avg chat latency:  %v\n", totalChat/time.Duration(ok))
	}
}

// runPair drives one full match/chat/leave cycle between two connections.
func runPair(cfg Config, pair int) pairResult {
	result := pairResult{pair: pair}
	url := fmt.Sprintf("ws://%s/ws", cfg.ServerAddr)

	connA, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		result.err = fmt.Errorf("dial A: %w", err)
		return result
	}
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		result.err = fmt.Errorf("dial B: %w", err)
		return result
	}
	defer connB.Close()

	// 1. Match
	start := time.Now()
	if err := send(connA, transport.Envelope{Event: transport.EventStartMatching}); err != nil {
		result.err = err
		return result
	}
	if err := send(connB, transport.Envelope{Event: transport.EventStartMatching}); err != nil {
		result.err = err
		return result
	}

	var matchedA, matchedB transport.MatchedPayload
	if err := waitEvent(connA, "matched", cfg.Timeout, &matchedA); err != nil {
		result.err = fmt.Errorf("waiting matched A: %w", err)
		return result
	}
	if err := waitEvent(connB, "matched", cfg.Timeout, &matchedB); err != nil {
		result.err = fmt.Errorf("waiting matched B: %w", err)
		return result
	}
	result.matchLatency = time.Since(start)
	if matchedA.RoomID != matchedB.RoomID {
		result.err = fmt.Errorf("room mismatch: %s vs %s", matchedA.RoomID, matchedB.RoomID)
		return result
	}

	// 2. Chat round-trips
	for i := 1; i <= cfg.Messages; i++ {
		payload, err := json.Marshal(transport.ChatPayload{
			RoomID: matchedA.RoomID,
			User:   fmt.Sprintf("tester-%d", pair),
			Text:   fmt.Sprintf("Message number %d.", i),
		})
		if err != nil {
			result.err = err
			return result
		}
		start = time.Now()
		if err := send(connA, transport.Envelope{Event: transport.EventChat, Data: payload}); err != nil {
			result.err = err
			return result
		}
		var chat transport.ChatOutPayload
		if err := waitEvent(connB, "chat", cfg.Timeout, &chat); err != nil {
			result.err = fmt.Errorf("waiting chat %d: %w", i, err)
			return result
		}
		if result.chatLatency == 0 {
			result.chatLatency = time.Since(start)
		}
	}

	// 3. Leave and verify the partner notice
	if err := send(connA, transport.Envelope{Event: transport.EventUserDisconnect}); err != nil {
		result.err = err
		return result
	}
	var notice transport.NoticePayload
	if err := waitEvent(connB, "userLeft", cfg.Timeout, &notice); err != nil {
		result.err = fmt.Errorf("waiting userLeft: %w", err)
	}
	return result
}

func send(conn *websocket.Conn, env transport.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}

// waitEvent reads frames until the wanted event arrives, decoding its
// payload into out.
func waitEvent(conn *websocket.Conn, want string, timeout time.Duration, out any) error {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env transport.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		if env.Event == want {
			return json.Unmarshal(env.Data, out)
		}
	}
}

func banner(cfg Config, text string) {
	if cfg.Colours {
		text = color.New(color.BgBlack, color.FgGreen).Render(text)
	}
	fmt.Println(text)
}

func printErr(cfg Config, text string) {
	if cfg.Colours {
		text = color.New(color.FgRed).Render(text)
	}
	fmt.Println(text)
}

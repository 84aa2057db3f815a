// Package domain contains core concepts of the matching system.
// This file defines Participant entities and their lifecycle.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/looplab/fsm"
)

// Participant lifecycle states.
const (
	StateIdle    = "idle"
	StateWaiting = "waiting"
	StateMatched = "matched"
)

// Lifecycle transition names.
const (
	transitionQueue   = "queue"
	transitionMatch   = "match"
	transitionCancel  = "cancel"
	transitionRelease = "release"
)

// ProfileSnapshot is the participant's profile as captured at connect time.
// It is not refreshed afterwards: the matched payload always carries the
// snapshot, even if the diary profile changes mid-session.
type ProfileSnapshot struct {
	UserID       string         `json:"userId"`
	Nickname     string         `json:"nickname"`
	Title        string         `json:"title"`
	Emotion      string         `json:"emotion"`
	EmotionColor string         `json:"emotionColor"`
	EmotionStats map[string]int `json:"emotionStats"`
	ProfileImage string         `json:"profileImage"`
}

// Participant is a connected client eligible for matching or chatting.
// Its lifecycle follows idle -> waiting -> matched -> idle; cancelling
// while waiting goes straight back to idle. Disconnection is terminal and
// handled by removing the participant from the registry entirely.
type Participant struct {
	ConnID      string
	Identity    string
	Guest       bool
	Profile     ProfileSnapshot
	ConnectedAt time.Time

	lifecycle *fsm.FSM
}

func NewParticipant(connID, identity string, guest bool, profile ProfileSnapshot) *Participant {
	return &Participant{
		ConnID:      connID,
		Identity:    identity,
		Guest:       guest,
		Profile:     profile,
		ConnectedAt: time.Now().UTC(),
		lifecycle: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: transitionQueue, Src: []string{StateIdle}, Dst: StateWaiting},
				{Name: transitionMatch, Src: []string{StateWaiting}, Dst: StateMatched},
				{Name: transitionCancel, Src: []string{StateWaiting}, Dst: StateIdle},
				{Name: transitionRelease, Src: []string{StateMatched}, Dst: StateIdle},
			},
			fsm.Callbacks{},
		),
	}
}

func (p *Participant) State() string {
	return p.lifecycle.Current()
}

// Queue marks the participant as waiting for a match.
func (p *Participant) Queue() error {
	return p.lifecycle.Event(transitionQueue)
}

// Match marks the participant as a room member.
func (p *Participant) Match() error {
	return p.lifecycle.Event(transitionMatch)
}

// Cancel aborts a pending match request.
func (p *Participant) Cancel() error {
	return p.lifecycle.Event(transitionCancel)
}

// Release returns a matched participant to idle after room teardown.
func (p *Participant) Release() error {
	return p.lifecycle.Event(transitionRelease)
}

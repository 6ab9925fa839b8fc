// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
)

var ErrMalformedEvent = errors.New("malformed event")

type EventKind int

const (
	EventUnknown EventKind = iota
	EventPollResult
	EventVoteCast
	EventVoteRetracted
)

func (k EventKind) String() string {
	switch k {
	case EventPollResult:
		return "poll_result"
	case EventVoteCast:
		return "vote_cast"
	case EventVoteRetracted:
		return "vote_retracted"
	}
	return "unknown"
}

// Event is a classified webhook update. Result is set for EventPollResult,
// Answer for EventVoteCast and EventVoteRetracted.
type Event struct {
	Kind     EventKind
	UpdateID int64
	Result   PollResult
	Answer   PollAnswer
}

// update mirrors the subset of the webhook body we read. Pointers
// distinguish a missing key from a zero value.
type update struct {
	UpdateID   int64          `json:"update_id"`
	Poll       *PollResult    `json:"poll"`
	PollAnswer *answerPayload `json:"poll_answer"`
}

type answerPayload struct {
	PollID    string `json:"poll_id"`
	User      *User  `json:"user"`
	OptionIDs *[]int `json:"option_ids"`
}

// Classify decodes a webhook body into exactly one event kind. Bodies that
// are not JSON or match no known shape return ErrMalformedEvent.
func Classify(body []byte) (Event, error) {
	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		return Event{}, ErrMalformedEvent
	}

	if u.Poll != nil && u.Poll.TotalVoterCount != nil {
		if u.Poll.ID == "" || len(u.Poll.Options) != OptionCount {
			return Event{}, ErrMalformedEvent
		}
		return Event{Kind: EventPollResult, UpdateID: u.UpdateID, Result: *u.Poll}, nil
	}

	if a := u.PollAnswer; a != nil && a.OptionIDs != nil {
		if a.PollID == "" || a.User == nil || !a.User.ExactID() {
			return Event{}, ErrMalformedEvent
		}
		answer := PollAnswer{PollID: a.PollID, User: *a.User, OptionIDs: *a.OptionIDs}
		kind := EventVoteRetracted
		if len(answer.OptionIDs) > 0 {
			kind = EventVoteCast
		}
		return Event{Kind: kind, UpdateID: u.UpdateID, Answer: answer}, nil
	}

	return Event{}, ErrMalformedEvent
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines webhook payload, event, and record schema types.

# Webhook Payloads

The event source posts one of two shapes:

	{"poll": {"id": "...", "options": [{"voter_count": 3}, ...], "is_closed": false, "total_voter_count": 10}}
	{"poll_answer": {"poll_id": "...", "option_ids": [1], "user": {"id": 42, "username": "bob"}}}

# Classification

Classify decodes a body once and returns a tagged Event:

	ev, err := models.Classify(body)
	switch ev.Kind {
	case models.EventPollResult:    // ev.Result
	case models.EventVoteCast:      // ev.Answer, non-empty OptionIDs
	case models.EventVoteRetracted: // ev.Answer, empty OptionIDs
	}

Anything else returns ErrMalformedEvent.

# Record Schema

Property names used in the record store:

	PropPollID, PropStatus, PropPollDate   poll summary
	PropUserID, PropChoice, PropDate, ...  vote ledger
	OptionProperty(prefix, i)              counts (summary) and labels (option map)

Status values:

	StatusOpen   = "Open"
	StatusClosed = "Closed"
*/
package models

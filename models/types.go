package models

import "fmt"

// OptionCount is the number of options every daily poll carries.
const OptionCount = 3

// PollStatus is the select value stored on a poll summary record.
type PollStatus string

const (
	StatusOpen   PollStatus = "Open"
	StatusClosed PollStatus = "Closed"
)

// Record property names shared by the poll summary, vote ledger and
// option map collections.
const (
	PropPollID    = "Poll ID"
	PropPollDate  = "Poll Date"
	PropStatus    = "Status"
	PropDate      = "Date"
	PropUserID    = "UserID"
	PropUsername  = "Username"
	PropFirstName = "First Name"
	PropLastName  = "Last Name"
	PropChoice    = "Choice"
)

// OptionProperty names the per-option property for a zero-based index,
// e.g. OptionProperty("Event ", 0) == "Event 1". The summary collection
// stores counts under it, the option map stores labels.
func OptionProperty(prefix string, index int) string {
	return fmt.Sprintf("%s%d", prefix, index+1)
}

// Webhook payload types

type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

type PollResult struct {
	ID              string       `json:"id"`
	Question        string       `json:"question,omitempty"`
	Options         []PollOption `json:"options"`
	IsClosed        bool         `json:"is_closed"`
	TotalVoterCount *int         `json:"total_voter_count"`
}

// Counts returns the per-option voter counts.
func (p PollResult) Counts() [OptionCount]int {
	var counts [OptionCount]int
	for i := 0; i < OptionCount && i < len(p.Options); i++ {
		counts[i] = p.Options[i].VoterCount
	}
	return counts
}

func (p PollResult) Status() PollStatus {
	if p.IsClosed {
		return StatusClosed
	}
	return StatusOpen
}

// MaxUserID is the largest user id stored exactly. Ids are written as
// store numbers, which are float64 (as in Notion), so larger ids could
// collide with a neighbour after rounding.
const MaxUserID = 1 << 53

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ExactID reports whether u.ID survives a round trip through a store number.
func (u User) ExactID() bool {
	return u.ID >= -MaxUserID && u.ID <= MaxUserID
}

type PollAnswer struct {
	PollID    string `json:"poll_id"`
	User      User   `json:"user"`
	OptionIDs []int  `json:"option_ids"`
}

// Choice is the first selected option index. Multi-answer polls are not
// used, so later selections are ignored.
func (a PollAnswer) Choice() int {
	return a.OptionIDs[0]
}

// Response bodies

const (
	ReplyOK             = "ok"
	ReplyNotOK          = "Not Ok"
	ReplyInvalidRequest = "Invalid request"
)

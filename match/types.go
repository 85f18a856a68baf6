// Package match ranks candidate users for a requester by how many of their
// mutually answered profile questions carry the same answer.
package match

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidLimit is returned for negative result limits.
	ErrInvalidLimit = errors.New("match: limit must not be negative")
	// ErrUserNotFound is returned by a UserLookup that has no such user.
	ErrUserNotFound = errors.New("match: user not found")
)

// QuestionID identifies a profile question.
type QuestionID int

// Key converts the id into the key space of an AnswerSet.
func (id QuestionID) Key() string {
	return strconv.Itoa(int(id))
}

// Question is one configurable profile attribute users may answer.
type Question struct {
	ID          QuestionID
	Name        string
	Description string
}

// AnswerSet maps a question key (see QuestionID.Key) to free-text answers.
type AnswerSet map[string]string

// Answer returns the answer for id. Absent and blank answers report ok=false.
func (a AnswerSet) Answer(id QuestionID) (string, bool) {
	v, ok := a[id.Key()]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// User is a read-only view of a person taking part in matching.
type User struct {
	ID             int
	Username       string
	Name           string
	AvatarTemplate string
	Answers        AnswerSet
}

// Result pairs a candidate with its compatibility towards the requester.
type Result struct {
	User          User
	Compatibility int
}

// Filters selects which accounts a CandidateSource may return.
type Filters struct {
	RealOnly         bool
	ActivatedOnly    bool
	ExcludeSuspended bool
}

// EligibleFilters is the filter set used for discovery.
func EligibleFilters() Filters {
	return Filters{RealOnly: true, ActivatedOnly: true, ExcludeSuspended: true}
}

// CandidateSource returns up to max users other than excludeID, with their
// answers loaded. No ordering is required.
type CandidateSource interface {
	Candidates(ctx context.Context, excludeID int, f Filters, max int) ([]User, error)
}

// QuestionProvider returns the current profile question set.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]Question, error)
}

// UserLookup resolves a single user with answers. Implementations return
// ErrUserNotFound for unknown ids.
type UserLookup interface {
	User(ctx context.Context, id int) (User, error)
}

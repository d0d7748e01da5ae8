package domain

import "time"

type ConversationTurn struct {
	ID             int64
	ConversationID string
	UserText       string
	SystemResponse string
	// ReservationID is set when the turn committed a reservation.
	ReservationID *int64
	CreatedAt     time.Time
}

type ConfidenceAnalysis struct {
	Score    float64
	Escalate bool
	Reasons  []string
}

type IssueKind string

const (
	IssueLowConfidence  IssueKind = "low_confidence"
	IssueHumanRequested IssueKind = "human_requested"
	IssueConfusion      IssueKind = "repeated_confusion"
	IssueError          IssueKind = "error"
)

// Issue is an exchange flagged for staff review.
type Issue struct {
	ID             int64
	ConversationID string
	UserText       string
	SystemResponse string
	Kind           IssueKind
	Score          float64
	Reasons        []string
	CreatedAt      time.Time
}

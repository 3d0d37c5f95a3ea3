package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateJobID is returned when inserting a job whose id already exists.
	ErrDuplicateJobID = errors.New("duplicate job id")
	// ErrJobNotFound is returned when no job row exists for an id.
	ErrJobNotFound = errors.New("job not found")
)

// JobKind identifies which handler a scheduled job is dispatched to.
type JobKind string

const (
	KindBroadcastSell   JobKind = "broadcast_sell"
	KindMorningFollowup JobKind = "morning_followup"
)

// JobStatus is the lifecycle state of a scheduled job.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusFired     JobStatus = "fired"
	StatusCancelled JobStatus = "cancelled"
)

// Job is a durable, time-triggered unit of work. Name carries the
// replace-by-name identity: at most one scheduled job exists per name.
type Job struct {
	ID         string
	Name       string
	Kind       JobKind
	TriggerAt  time.Time // UTC
	TargetUser *int64    // telegram id; nil for broadcast jobs
	Status     JobStatus
	Payload    string
	CreatedAt  time.Time
}

// Invoice describes an outbound payment request.
type Invoice struct {
	Title       string
	Description string
	Currency    string
	Amount      int // minor units
	Payload     string
}

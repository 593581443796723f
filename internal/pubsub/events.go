package pubsub

import (
	"context"
	"time"
)

// EventType names a change to a job in the local history.
type EventType string

const (
	// JobRecorded follows the first write of a submitted operation.
	JobRecorded EventType = "job_recorded"
	// JobUpdated follows a status change that leaves the job running.
	JobUpdated EventType = "job_updated"
	// JobFinished follows the change to completed or failed. Nothing is
	// published for the job after it.
	JobFinished EventType = "job_finished"
)

// Event is one published change. At is stamped by the broker.
type Event[T any] struct {
	Type    EventType
	Payload T
	At      time.Time
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

var _ interface {
	Subscriber[struct{}]
	Publisher[struct{}]
} = (*Broker[struct{}])(nil)

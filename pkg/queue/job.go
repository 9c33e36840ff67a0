package queue

import "context"

// Job is one unit of background work the Redis consumer can dispatch.
// Session replay is the only job today.
type Job interface {
	// Name uniquely identifies the job for registration.
	Name() string

	// Type is the message type the job claims off the queue.
	Type() string

	// Handle runs the job against the decoded payload.
	Handle(ctx context.Context, payload interface{}) error
}

package ports

import "context"

// FollowUpKind names a best-effort counter update.
type FollowUpKind string

const (
	FollowUpCommentsCount FollowUpKind = "comments_count"
	FollowUpUserPoints    FollowUpKind = "user_points"
	FollowUpFollowers     FollowUpKind = "followers"
)

// FollowUp is a secondary write issued after a primary write has committed.
// Its failure never affects the primary write or the response.
//
// For FollowUpFollowers, ActorID is added to the target's followers when
// Delta is positive and removed otherwise.
type FollowUp struct {
	Kind     FollowUpKind
	TargetID string
	ActorID  string
	Delta    int
}

// FollowUpQueue accepts follow-ups without blocking the caller.
type FollowUpQueue interface {
	Enqueue(job FollowUp)
}

// FollowUpService applies a single follow-up.
type FollowUpService interface {
	Apply(ctx context.Context, job FollowUp) error
}

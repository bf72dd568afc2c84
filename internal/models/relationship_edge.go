package models

import (
	"fmt"
	"time"
)

// RelationshipStatus is the closed set of states an edge can be in.
type RelationshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet answered.
	StatusPending RelationshipStatus = "pending"

	// StatusAccepted means the request was accepted; an accepted friendship is
	// always stored as two accepted edges, one per direction.
	StatusAccepted RelationshipStatus = "accepted"

	// StatusRejected means the edge is dead history: a declined request or one
	// half of a dissolved friendship. Rejected rows never block new requests.
	StatusRejected RelationshipStatus = "rejected"
)

// ParseRelationshipStatus validates a raw status value at the boundary.
// Anything outside the closed enum is an error, never stored.
func ParseRelationshipStatus(s string) (RelationshipStatus, error) {
	switch RelationshipStatus(s) {
	case StatusPending, StatusAccepted, StatusRejected:
		return RelationshipStatus(s), nil
	}
	return "", fmt.Errorf("invalid relationship status %q", s)
}

// Active reports whether an edge in this status blocks a new request for
// the same ordered pair. Rejected edges are retained history only.
func (s RelationshipStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// RelationshipEdge is one directed relationship record between two users.
// A friendship is a symmetric pair of accepted edges (A→B and B→A); a lone
// pending edge is an unanswered request. Edges use a surrogate ID rather
// than a composite (from, to) key so that rejected history can accumulate:
// at most one *active* edge may exist per ordered pair at any time.
type RelationshipEdge struct {
	ID         uint               `gorm:"primaryKey"`
	FromUserID uint               `gorm:"not null;index:idx_edge_pair"`
	ToUserID   uint               `gorm:"not null;index:idx_edge_pair"`
	Status     RelationshipStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	FromUser User `gorm:"foreignKey:FromUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToUser   User `gorm:"foreignKey:ToUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

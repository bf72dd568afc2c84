package relationship

import (
	"errors"
	"fmt"

	"friendcircle/backend/internal/models"

	"gorm.io/gorm"
)

// Store is the persistence contract for relationship edges. It owns all edge
// rows; the resolver and state machine mutate state only through it. A Store
// is cheap to construct and is rebound to the transaction handle inside every
// mutating operation, so a single Store value is never shared across
// transaction boundaries.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm handle (a root connection or an open transaction).
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Find returns the active (pending or accepted) edge for the ordered pair
// (from, to), or ErrNotFound. Rejected history rows are skipped; at most one
// active edge exists per ordered pair, so First is deterministic.
func (s *Store) Find(from, to uint) (*models.RelationshipEdge, error) {
	var edge models.RelationshipEdge
	err := s.db.
		Where("from_user_id = ? AND to_user_id = ?", from, to).
		Where("status IN ?", []models.RelationshipStatus{models.StatusPending, models.StatusAccepted}).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active edge %d->%d", ErrNotFound, from, to)
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// FindByID returns the edge with the given ID regardless of status.
func (s *Store) FindByID(id uint) (*models.RelationshipEdge, error) {
	var edge models.RelationshipEdge
	err := s.db.First(&edge, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: edge %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// FindAny returns every edge between the two users in either direction and
// any status, oldest first. Callers filter for active edges themselves;
// absence is an empty slice, not an error.
func (s *Store) FindAny(userA, userB uint) ([]models.RelationshipEdge, error) {
	var edges []models.RelationshipEdge
	err := s.db.
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// ListByTarget returns edges pointing at user with the given status, oldest
// first (request-inbox ordering), with the sender preloaded.
func (s *Store) ListByTarget(user uint, status models.RelationshipStatus) ([]models.RelationshipEdge, error) {
	var edges []models.RelationshipEdge
	err := s.db.
		Where("to_user_id = ? AND status = ?", user, status).
		Order("created_at ASC").
		Preload("FromUser").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// ListBySource returns edges originating from user with the given status,
// oldest first, with the recipient preloaded.
func (s *Store) ListBySource(user uint, status models.RelationshipStatus) ([]models.RelationshipEdge, error) {
	var edges []models.RelationshipEdge
	err := s.db.
		Where("from_user_id = ? AND status = ?", user, status).
		Order("created_at ASC").
		Preload("ToUser").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// ListFriends returns every accepted edge originating from user. Because an
// accepted friendship is always written as a symmetric pair, the outgoing
// direction alone is the complete friend list; no OR-query over both columns
// is needed. The read side relies on the write side keeping that invariant.
func (s *Store) ListFriends(user uint) ([]models.RelationshipEdge, error) {
	return s.ListBySource(user, models.StatusAccepted)
}

// Create persists a new edge in the given status.
func (s *Store) Create(from, to uint, status models.RelationshipStatus) (*models.RelationshipEdge, error) {
	edge := models.RelationshipEdge{
		FromUserID: from,
		ToUserID:   to,
		Status:     status,
	}
	if err := s.db.Create(&edge).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

// UpdateStatus transitions an edge to a new status.
func (s *Store) UpdateStatus(edge *models.RelationshipEdge, status models.RelationshipStatus) error {
	if err := s.db.Model(edge).Update("status", status).Error; err != nil {
		return err
	}
	edge.Status = status
	return nil
}

// FindUserByHandle resolves a handle to a user record, or ErrNotFound.
func (s *Store) FindUserByHandle(handle string) (*models.User, error) {
	var user models.User
	err := s.db.Where("handle = ?", handle).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, handle)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

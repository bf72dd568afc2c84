package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"friendcircle/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxTxRetries bounds how often a pair operation is replayed after a
// transaction serialization failure before giving up with ErrConflict.
const maxTxRetries = 3

// Decision is a caller's answer to a pending friend request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision validates a raw decision value at the boundary.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionReject:
		return Decision(s), nil
	}
	return "", fmt.Errorf("%w: decision must be accept or reject, got %q", ErrInvalidOperation, s)
}

// RequestOutcome describes what SendRequest did.
type RequestOutcome struct {
	// Edge is the canonical edge for the caller's request. When
	// CrossedPending is set it is instead the counterpart's pending request
	// toward the caller.
	Edge *models.RelationshipEdge

	// Created is true when a new pending edge was persisted.
	Created bool

	// CrossedPending is true when the target already had a pending request
	// toward the caller. Under the default policy nothing is mutated and the
	// caller is expected to respond to Edge explicitly; with auto-accept
	// enabled both directions were resolved to accepted instead.
	CrossedPending bool
}

// EdgeView is the caller-facing projection of an edge: the counterpart's
// handle and nothing else of their record.
type EdgeView struct {
	ID                uint                      `json:"id"`
	CounterpartID     uint                      `json:"counterpart_id"`
	CounterpartHandle string                    `json:"counterpart_handle"`
	Status            models.RelationshipStatus `json:"status"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// Notifier receives fire-and-forget friendship events for a user. The event
// hub satisfies this; a nil notifier disables delivery.
type Notifier interface {
	Notify(userID uint, event string, payload interface{})
}

// Options tunes service policy.
type Options struct {
	// AutoAcceptCrossed resolves a crossed pending request (both sides
	// requested each other) straight to an accepted pair instead of
	// surfacing it for an explicit accept. Off by default.
	AutoAcceptCrossed bool

	// Notifier, when set, is told about new requests, accepts and dissolves.
	Notifier Notifier

	Logger *logrus.Logger
}

// Service is the relationship core: the request resolver, the friendship
// state machine and the query side, all operating through the Store within
// per-pair serialized transactions.
type Service struct {
	db                *gorm.DB
	locks             *pairLocker
	autoAcceptCrossed bool
	notifier          Notifier
	log               *logrus.Logger
}

// NewService builds a Service on top of a connected gorm handle.
func NewService(db *gorm.DB, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:                db,
		locks:             newPairLocker(),
		autoAcceptCrossed: opts.AutoAcceptCrossed,
		notifier:          opts.Notifier,
		log:               log,
	}
}

// SendRequest resolves targetHandle and either creates a new pending edge
// requester→target, returns the existing active edge unchanged, or surfaces
// a crossed pending request from the target. Exactly one row is written on
// the create path, zero otherwise (auto-accept policy aside).
func (s *Service) SendRequest(ctx context.Context, requesterID uint, targetHandle string) (*RequestOutcome, error) {
	target, err := NewStore(s.db.WithContext(ctx)).FindUserByHandle(targetHandle)
	if err != nil {
		return nil, err
	}
	if target.ID == requesterID {
		return nil, fmt.Errorf("%w: cannot send a friend request to yourself", ErrInvalidOperation)
	}

	var outcome RequestOutcome
	err = s.withPairTx(ctx, requesterID, target.ID, func(store *Store) error {
		outcome = RequestOutcome{}
		edges, err := store.FindAny(requesterID, target.ID)
		if err != nil {
			return err
		}

		var forward, reverse *models.RelationshipEdge
		for i := range edges {
			if !edges[i].Status.Active() {
				continue
			}
			if edges[i].FromUserID == requesterID {
				forward = &edges[i]
			} else {
				reverse = &edges[i]
			}
		}

		switch {
		case forward != nil:
			// Idempotent re-request: the caller already has a pending request
			// or an accepted friendship toward the target.
			outcome.Edge = forward
			return nil

		case reverse != nil && reverse.Status == models.StatusPending:
			outcome.Edge = reverse
			outcome.CrossedPending = true
			if !s.autoAcceptCrossed {
				return nil
			}
			// Policy: crossed requests collapse into an accepted pair.
			if err := store.UpdateStatus(reverse, models.StatusAccepted); err != nil {
				return err
			}
			mirror, err := store.Create(requesterID, target.ID, models.StatusAccepted)
			if err != nil {
				return err
			}
			outcome.Edge = mirror
			outcome.Created = true
			return nil

		case reverse != nil:
			// Reverse accepted without a forward mirror means the symmetric
			// pair invariant is broken; refuse to make it worse.
			return fmt.Errorf("%w: already friends", ErrConflict)

		default:
			edge, err := store.Create(requesterID, target.ID, models.StatusPending)
			if err != nil {
				return err
			}
			outcome.Edge = edge
			outcome.Created = true
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	if outcome.Created {
		s.log.WithFields(logrus.Fields{
			"from": requesterID,
			"to":   target.ID,
			"edge": outcome.Edge.ID,
		}).Info("friend request created")
		event := "friend.request"
		if outcome.CrossedPending {
			event = "friend.accepted"
		}
		s.notify(target.ID, event, outcome.Edge)
	}
	return &outcome, nil
}

// Respond applies the actor's decision to a pending request. Only the edge's
// recipient may respond. Accept transitions the edge and its mirror to
// accepted atomically; reject transitions only the edge itself, leaving any
// reverse pending request the actor may have sent independently untouched.
func (s *Service) Respond(ctx context.Context, actorID, requestID uint, decision Decision) (*models.RelationshipEdge, error) {
	// Resolve the pair first so the lock can be taken; the edge is re-read
	// and re-checked inside the transaction.
	probe, err := NewStore(s.db.WithContext(ctx)).FindByID(requestID)
	if err != nil {
		return nil, err
	}
	if probe.ToUserID != actorID {
		return nil, fmt.Errorf("%w: only the recipient may respond to a request", ErrForbidden)
	}

	var edge *models.RelationshipEdge
	err = s.withPairTx(ctx, probe.FromUserID, probe.ToUserID, func(store *Store) error {
		edge, err = store.FindByID(requestID)
		if err != nil {
			return err
		}
		if edge.Status != models.StatusPending {
			return fmt.Errorf("%w: request is already %s", ErrConflict, edge.Status)
		}

		if decision == DecisionReject {
			return store.UpdateStatus(edge, models.StatusRejected)
		}

		// Accept: ensure the mirror edge so both directions end accepted.
		mirror, err := store.Find(edge.ToUserID, edge.FromUserID)
		switch {
		case err == nil && mirror.Status == models.StatusAccepted:
			return fmt.Errorf("%w: already friends", ErrConflict)
		case err == nil:
			if err := store.UpdateStatus(mirror, models.StatusAccepted); err != nil {
				return err
			}
		case errors.Is(err, ErrNotFound):
			if _, err := store.Create(edge.ToUserID, edge.FromUserID, models.StatusAccepted); err != nil {
				return err
			}
		default:
			return err
		}
		return store.UpdateStatus(edge, models.StatusAccepted)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"edge":     edge.ID,
		"actor":    actorID,
		"decision": decision,
	}).Info("friend request resolved")
	if decision == DecisionAccept {
		s.notify(edge.FromUserID, "friend.accepted", edge)
	}
	return edge, nil
}

// Dissolve ends the accepted friendship between the actor and friendID.
// Both edges of the pair flip to rejected in one transaction, so neither
// side lists the other as a friend afterwards and either side may send a
// fresh request. History rows are kept, never deleted.
func (s *Service) Dissolve(ctx context.Context, actorID, friendID uint) error {
	if actorID == friendID {
		return fmt.Errorf("%w: cannot dissolve a friendship with yourself", ErrInvalidOperation)
	}

	err := s.withPairTx(ctx, actorID, friendID, func(store *Store) error {
		forward, err := store.Find(actorID, friendID)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: not friends with user %d", ErrNotFound, friendID)
		}
		if err != nil {
			return err
		}
		if forward.Status != models.StatusAccepted {
			return fmt.Errorf("%w: not friends with user %d", ErrNotFound, friendID)
		}
		if err := store.UpdateStatus(forward, models.StatusRejected); err != nil {
			return err
		}

		mirror, err := store.Find(friendID, actorID)
		if errors.Is(err, ErrNotFound) {
			// Half a pair should not happen; dissolving the found half is
			// still the right repair.
			return nil
		}
		if err != nil {
			return err
		}
		return store.UpdateStatus(mirror, models.StatusRejected)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"actor": actorID, "friend": friendID}).Info("friendship dissolved")
	s.notify(friendID, "friend.removed", map[string]uint{"user_id": actorID})
	return nil
}

// ListFriends returns the actor's accepted friendships, counterpart handles
// included.
func (s *Service) ListFriends(ctx context.Context, userID uint) ([]EdgeView, error) {
	edges, err := NewStore(s.db.WithContext(ctx)).ListFriends(userID)
	if err != nil {
		return nil, err
	}
	return viewsFromSource(edges), nil
}

// ListIncoming returns pending requests addressed to the actor, oldest first.
func (s *Service) ListIncoming(ctx context.Context, userID uint) ([]EdgeView, error) {
	edges, err := NewStore(s.db.WithContext(ctx)).ListByTarget(userID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	views := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		views = append(views, EdgeView{
			ID:                e.ID,
			CounterpartID:     e.FromUserID,
			CounterpartHandle: e.FromUser.Handle,
			Status:            e.Status,
			CreatedAt:         e.CreatedAt,
		})
	}
	return views, nil
}

// ListOutgoing returns pending requests the actor has sent, oldest first.
func (s *Service) ListOutgoing(ctx context.Context, userID uint) ([]EdgeView, error) {
	edges, err := NewStore(s.db.WithContext(ctx)).ListBySource(userID, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return viewsFromSource(edges), nil
}

func viewsFromSource(edges []models.RelationshipEdge) []EdgeView {
	views := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		views = append(views, EdgeView{
			ID:                e.ID,
			CounterpartID:     e.ToUserID,
			CounterpartHandle: e.ToUser.Handle,
			Status:            e.Status,
			CreatedAt:         e.CreatedAt,
		})
	}
	return views
}

// withPairTx runs fn inside a transaction while holding the exclusive lock
// for the unordered (a, b) pair, replaying fn on serialization failures up
// to maxTxRetries before surfacing ErrConflict. Domain errors pass through
// untouched.
func (s *Service) withPairTx(ctx context.Context, a, b uint, fn func(store *Store) error) error {
	unlock := s.locks.Lock(a, b)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewStore(tx))
		})
		if err == nil || !retryableTxError(err) {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"pair":    pairKey(a, b),
			"attempt": attempt + 1,
		}).WithError(err).Warn("retrying relationship transaction")
	}
	return fmt.Errorf("%w: transaction retries exhausted: %v", ErrConflict, err)
}

// retryableTxError reports whether err is a transient transaction conflict
// worth replaying: postgres serialization/deadlock failures or sqlite lock
// contention in tests.
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return strings.Contains(err.Error(), "database is locked")
}

func (s *Service) notify(userID uint, event string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, event, payload)
}

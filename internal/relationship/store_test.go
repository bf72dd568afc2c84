package relationship_test

import (
	"testing"
	"time"

	"friendcircle/backend/internal/models"
	"friendcircle/backend/internal/relationship"
	"friendcircle/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_FindSkipsRejectedHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	store := relationship.NewStore(db)

	old, err := store.Create(alice.ID, bob.ID, models.StatusRejected)
	require.NoError(t, err)

	_, err = store.Find(alice.ID, bob.ID)
	assert.ErrorIs(t, err, relationship.ErrNotFound)

	fresh, err := store.Create(alice.ID, bob.ID, models.StatusPending)
	require.NoError(t, err)

	found, err := store.Find(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, found.ID)
	assert.NotEqual(t, old.ID, found.ID)
}

func TestStore_FindIsDirectional(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	store := relationship.NewStore(db)

	_, err := store.Create(alice.ID, bob.ID, models.StatusPending)
	require.NoError(t, err)

	_, err = store.Find(bob.ID, alice.ID)
	assert.ErrorIs(t, err, relationship.ErrNotFound)
}

func TestStore_FindAnyReturnsBothDirectionsAndAllStatuses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	carol := testutil.CreateTestUser(t, db, "carol")
	store := relationship.NewStore(db)

	_, err := store.Create(alice.ID, bob.ID, models.StatusRejected)
	require.NoError(t, err)
	_, err = store.Create(bob.ID, alice.ID, models.StatusPending)
	require.NoError(t, err)
	_, err = store.Create(alice.ID, carol.ID, models.StatusPending) // unrelated pair
	require.NoError(t, err)

	edges, err := store.FindAny(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestStore_ListByTargetOrdersOldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	carol := testutil.CreateTestUser(t, db, "carol")

	// Insert with explicit timestamps so ordering is deterministic.
	base := time.Now().Add(-time.Hour)
	first := models.RelationshipEdge{FromUserID: carol.ID, ToUserID: alice.ID, Status: models.StatusPending, CreatedAt: base}
	second := models.RelationshipEdge{FromUserID: bob.ID, ToUserID: alice.ID, Status: models.StatusPending, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, db.Create(&first).Error)

	store := relationship.NewStore(db)
	inbox, err := store.ListByTarget(alice.ID, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, carol.ID, inbox[0].FromUserID)
	assert.Equal(t, "carol", inbox[0].FromUser.Handle)
	assert.Equal(t, bob.ID, inbox[1].FromUserID)
}

func TestStore_ListFriendsUsesOutgoingDirectionOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	carol := testutil.CreateTestUser(t, db, "carol")
	store := relationship.NewStore(db)

	// Symmetric accepted pair alice<->bob, plus a pending edge to carol.
	_, err := store.Create(alice.ID, bob.ID, models.StatusAccepted)
	require.NoError(t, err)
	_, err = store.Create(bob.ID, alice.ID, models.StatusAccepted)
	require.NoError(t, err)
	_, err = store.Create(alice.ID, carol.ID, models.StatusPending)
	require.NoError(t, err)

	friends, err := store.ListFriends(alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ToUserID)
	assert.Equal(t, "bob", friends[0].ToUser.Handle)
}

func TestStore_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	store := relationship.NewStore(db)

	edge, err := store.Create(alice.ID, bob.ID, models.StatusPending)
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(edge, models.StatusAccepted))

	reloaded, err := store.FindByID(edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, reloaded.Status)
}

func TestStore_FindUserByHandle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	store := relationship.NewStore(db)

	user, err := store.FindUserByHandle("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = store.FindUserByHandle("nobody")
	assert.ErrorIs(t, err, relationship.ErrNotFound)
}

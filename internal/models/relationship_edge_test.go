package models_test

import (
	"testing"

	"friendcircle/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelationshipStatus(t *testing.T) {
	for _, raw := range []string{"pending", "accepted", "rejected"} {
		status, err := models.ParseRelationshipStatus(raw)
		require.NoError(t, err)
		assert.EqualValues(t, raw, status)
	}

	for _, raw := range []string{"", "PENDING", "friends", "('pending', 'Pending')"} {
		_, err := models.ParseRelationshipStatus(raw)
		assert.Error(t, err, "status %q must be rejected", raw)
	}
}

func TestRelationshipStatusActive(t *testing.T) {
	assert.True(t, models.StatusPending.Active())
	assert.True(t, models.StatusAccepted.Active())
	assert.False(t, models.StatusRejected.Active())
}

package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"friendcircle/backend/internal/auth"
	"friendcircle/backend/internal/config"
	"friendcircle/backend/internal/database"
	"friendcircle/backend/internal/handler"
	"friendcircle/backend/internal/models"
	"friendcircle/backend/internal/relationship"
	"friendcircle/backend/internal/testutil"
	"friendcircle/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{JWTSecret: "test-secret"}
	database.DB = testutil.SetupTestDB(t)

	log := logrus.New()
	log.SetOutput(io.Discard)
	handler.FriendService = relationship.NewService(database.DB, relationship.Options{Logger: log})

	router := gin.New()
	apiV1 := router.Group("/api/v1")

	friendRoutes := apiV1.Group("/friends")
	friendRoutes.Use(auth.AuthMiddleware())
	{
		friendRoutes.GET("", handler.ListFriends)
		friendRoutes.POST("/requests", handler.SendFriendRequest)
		friendRoutes.GET("/requests/incoming", handler.ListIncomingRequests)
		friendRoutes.GET("/requests/outgoing", handler.ListOutgoingRequests)
		friendRoutes.POST("/requests/:id/accept", handler.AcceptFriendRequest)
		friendRoutes.POST("/requests/:id/reject", handler.RejectFriendRequest)
		friendRoutes.DELETE("/:userID", handler.DissolveFriendship)
	}
	return router
}

func authedRequest(t *testing.T, method, path, body string, userID uint) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := jwt.GenerateToken(userID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFriendshipFlowOverHTTP(t *testing.T) {
	router := setupTestRouter(t)
	alice := testutil.CreateTestUser(t, database.DB, "alice")
	bob := testutil.CreateTestUser(t, database.DB, "bob")

	// Alice sends a friend request to bob.
	w := doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"bob"}`, alice.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sent struct {
		RequestID      uint                      `json:"request_id"`
		Status         models.RelationshipStatus `json:"status"`
		CrossedPending bool                      `json:"crossed_pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.Equal(t, models.StatusPending, sent.Status)
	assert.False(t, sent.CrossedPending)

	// Re-sending is idempotent: 200, same request.
	w = doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"bob"}`, alice.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bob sees it in his inbox, alice in her outbox.
	w = doRequest(router, authedRequest(t, "GET", "/api/v1/friends/requests/incoming", "", bob.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var inbox []relationship.EdgeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "alice", inbox[0].CounterpartHandle)

	w = doRequest(router, authedRequest(t, "GET", "/api/v1/friends/requests/outgoing", "", alice.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var outbox []relationship.EdgeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outbox))
	require.Len(t, outbox, 1)
	assert.Equal(t, "bob", outbox[0].CounterpartHandle)

	// Bob accepts.
	w = doRequest(router, authedRequest(t, "POST", fmt.Sprintf("/api/v1/friends/requests/%d/accept", sent.RequestID), "", bob.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Both sides now list each other.
	for user, friend := range map[uint]string{alice.ID: "bob", bob.ID: "alice"} {
		w = doRequest(router, authedRequest(t, "GET", "/api/v1/friends", "", user))
		require.Equal(t, http.StatusOK, w.Code)
		var friends []relationship.EdgeView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &friends))
		require.Len(t, friends, 1)
		assert.Equal(t, friend, friends[0].CounterpartHandle)
	}

	// Alice removes bob; both friend lists empty afterwards.
	w = doRequest(router, authedRequest(t, "DELETE", fmt.Sprintf("/api/v1/friends/%d", bob.ID), "", alice.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, user := range []uint{alice.ID, bob.ID} {
		w = doRequest(router, authedRequest(t, "GET", "/api/v1/friends", "", user))
		require.Equal(t, http.StatusOK, w.Code)
		var friends []relationship.EdgeView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &friends))
		assert.Empty(t, friends)
	}
}

func TestFriendshipErrorStatusCodes(t *testing.T) {
	router := setupTestRouter(t)
	alice := testutil.CreateTestUser(t, database.DB, "alice")
	bob := testutil.CreateTestUser(t, database.DB, "bob")
	carol := testutil.CreateTestUser(t, database.DB, "carol")

	// Self-request → 400 invalid_operation.
	w := doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"alice"}`, alice.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_operation")

	// Unknown handle → 404 not_found.
	w = doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"nobody"}`, alice.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")

	// Accepting someone else's request → 403 forbidden.
	w = doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"bob"}`, alice.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		RequestID uint `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))

	w = doRequest(router, authedRequest(t, "POST", fmt.Sprintf("/api/v1/friends/requests/%d/accept", sent.RequestID), "", carol.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")

	// Responding to an already-resolved request → 409 conflict.
	w = doRequest(router, authedRequest(t, "POST", fmt.Sprintf("/api/v1/friends/requests/%d/accept", sent.RequestID), "", bob.ID))
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, authedRequest(t, "POST", fmt.Sprintf("/api/v1/friends/requests/%d/reject", sent.RequestID), "", bob.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "conflict")

	// Dissolving a non-friend → 404.
	w = doRequest(router, authedRequest(t, "DELETE", fmt.Sprintf("/api/v1/friends/%d", carol.ID), "", alice.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// No token → 401.
	req := httptest.NewRequest("GET", "/api/v1/friends", nil)
	w = doRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCrossedRequestSurfacedOverHTTP(t *testing.T) {
	router := setupTestRouter(t)
	alice := testutil.CreateTestUser(t, database.DB, "alice")
	bob := testutil.CreateTestUser(t, database.DB, "bob")

	w := doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"alice"}`, bob.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	// Alice's crossed request does not auto-accept; the existing request is
	// surfaced so she can respond to it explicitly.
	w = doRequest(router, authedRequest(t, "POST", "/api/v1/friends/requests", `{"handle":"bob"}`, alice.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var crossed struct {
		RequestID      uint                      `json:"request_id"`
		Status         models.RelationshipStatus `json:"status"`
		CrossedPending bool                      `json:"crossed_pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &crossed))
	assert.True(t, crossed.CrossedPending)
	assert.Equal(t, models.StatusPending, crossed.Status)

	w = doRequest(router, authedRequest(t, "POST", fmt.Sprintf("/api/v1/friends/requests/%d/accept", crossed.RequestID), "", alice.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(router, authedRequest(t, "GET", "/api/v1/friends", "", bob.ID))
	require.Equal(t, http.StatusOK, w.Code)
	var friends []relationship.EdgeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].CounterpartHandle)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"friendcircle/backend/internal/hub"
	"friendcircle/backend/internal/relationship"

	"github.com/gin-gonic/gin"
)

// FriendService is the relationship core used by the friendship handlers.
// It is assigned once in main, before the router starts serving.
var FriendService *relationship.Service

// SendRequestInput defines the structure for sending a friend request.
type SendRequestInput struct {
	Handle string `json:"handle" binding:"required" example:"bob"`
}

// writeRelationshipError maps a core error to its stable status code and
// machine-readable code. The taxonomy is never collapsed into a generic 500.
func writeRelationshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relationship.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, relationship.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_operation"})
	case errors.Is(err, relationship.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "forbidden"})
	case errors.Is(err, relationship.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// SendFriendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to the user with the given handle. Re-sending an active request is idempotent. If the target already requested the caller, the response carries crossed_pending and nothing is mutated unless the auto-accept policy is enabled.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendRequestInput true "Target handle"
// @Success      200  {object}  map[string]interface{} "Existing or crossed request"
// @Success      201  {object}  map[string]interface{} "Request created"
// @Failure      400  {object}  ErrorResponse "Self-request or bad input"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse
// @Router       /friends/requests [post]
func SendFriendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := FriendService.SendRequest(c.Request.Context(), viewerID.(uint), input.Handle)
	if err != nil {
		writeRelationshipError(c, err)
		return
	}

	body := gin.H{
		"request_id":      outcome.Edge.ID,
		"status":          outcome.Edge.Status,
		"crossed_pending": outcome.CrossedPending,
	}
	if outcome.Created {
		c.JSON(http.StatusCreated, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// AcceptFriendRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request addressed to the caller. Both directed edges of the pair end up accepted.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the recipient"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Already resolved or already friends"
// @Router       /friends/requests/{id}/accept [post]
func AcceptFriendRequest(c *gin.Context) {
	respondToRequest(c, relationship.DecisionAccept)
}

// RejectFriendRequest godoc
// @Summary      Reject friend request
// @Description  Rejects a pending friend request addressed to the caller. A reverse pending request the caller may have sent is left untouched.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the recipient"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Already resolved"
// @Router       /friends/requests/{id}/reject [post]
func RejectFriendRequest(c *gin.Context) {
	respondToRequest(c, relationship.DecisionReject)
}

func respondToRequest(c *gin.Context, decision relationship.Decision) {
	viewerID, _ := c.Get("userID")
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	edge, err := FriendService.Respond(c.Request.Context(), viewerID.(uint), uint(requestID), decision)
	if err != nil {
		writeRelationshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": edge.ID, "status": edge.Status})
}

// DissolveFriendship godoc
// @Summary      Remove a friend
// @Description  Ends the accepted friendship with the given user. Both sides stop listing each other as friends; either side may send a fresh request afterwards.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        userID   path      int  true  "Friend's User ID"
// @Success      200  {object}  map[string]string "{"message": "Friendship dissolved"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not friends with that user"
// @Router       /friends/{userID} [delete]
func DissolveFriendship(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	friendID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := FriendService.Dissolve(c.Request.Context(), viewerID.(uint), uint(friendID)); err != nil {
		writeRelationshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friendship dissolved"})
}

// ListFriends godoc
// @Summary      List friends
// @Description  Lists the caller's accepted friendships.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   relationship.EdgeView
// @Failure      401  {object}  ErrorResponse
// @Router       /friends [get]
func ListFriends(c *gin.Context) {
	listEdges(c, FriendService.ListFriends)
}

// ListIncomingRequests godoc
// @Summary      List incoming friend requests
// @Description  Lists pending friend requests addressed to the caller, oldest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   relationship.EdgeView
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/incoming [get]
func ListIncomingRequests(c *gin.Context) {
	listEdges(c, FriendService.ListIncoming)
}

// ListOutgoingRequests godoc
// @Summary      List outgoing friend requests
// @Description  Lists pending friend requests the caller has sent, oldest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   relationship.EdgeView
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/outgoing [get]
func ListOutgoingRequests(c *gin.Context) {
	listEdges(c, FriendService.ListOutgoing)
}

func listEdges(c *gin.Context, list func(ctx context.Context, userID uint) ([]relationship.EdgeView, error)) {
	viewerID, _ := c.Get("userID")

	views, err := list(c.Request.Context(), viewerID.(uint))
	if err != nil {
		writeRelationshipError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// StreamEvents godoc
// @Summary      Stream friendship events
// @Description  Server-sent events stream of the caller's friendship events (incoming requests, accepts, removals).
// @Tags         friendship
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {string}  string  "event stream"
// @Failure      401  {object}  ErrorResponse
// @Router       /events [get]
func StreamEvents(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	userID := viewerID.(uint)

	client := make(hub.Client, 16)
	hub.GlobalHub.Subscribe(userID, client)
	defer hub.GlobalHub.Unsubscribe(userID, client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

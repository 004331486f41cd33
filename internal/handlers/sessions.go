package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"learnstack/api/internal/security"
)

type sessionResponse struct {
	ID         int64      `json:"id"`
	Platform   string     `json:"platform"`
	LastSeenAt time.Time  `json:"lastSeenAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	Current    bool       `json:"current"`
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	claimsVal, _ := c.Get("access_claims")
	claims, ok := claimsVal.(security.AccessClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_claims"})
		return
	}

	sessions, err := h.sessions.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, sessionResponse{
			ID:         session.ID,
			Platform:   string(session.Platform),
			LastSeenAt: session.LastSeen(),
			ExpiresAt:  session.ExpiresAt,
			CreatedAt:  session.CreatedAt,
			Current:    session.ID == claims.SessionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": resp})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	claimsVal, _ := c.Get("access_claims")
	if claims, ok := claimsVal.(security.AccessClaims); ok && claims.SessionID == sessionID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot_revoke_current_session"})
		return
	}

	if err := h.sessions.RevokeByID(c.Request.Context(), user.ID, sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Heartbeat refreshes the session's last-activity timestamp. Writes
// are throttled server-side, so clients may call this freely.
func (h HandlerSet) Heartbeat(c *gin.Context) {
	claimsVal, _ := c.Get("access_claims")
	claims, ok := claimsVal.(security.AccessClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_claims"})
		return
	}

	if err := h.sessions.RecordActivity(c.Request.Context(), claims.SessionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) SessionStats(c *gin.Context) {
	stats, err := h.sessions.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	byPlatform := make(map[string]int, len(stats.ByPlatform))
	for platform, count := range stats.ByPlatform {
		byPlatform[string(platform)] = count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      stats.Total,
		"active":     stats.Active,
		"inactive":   stats.Inactive,
		"byPlatform": byPlatform,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnstack/api/internal/models"
)

type generateOtpRequest struct {
	Purpose string `json:"purpose" binding:"required"`
}

func (h HandlerSet) GenerateOtp(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req generateOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose, ok := models.ParseOtpPurpose(req.Purpose)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown purpose"})
		return
	}

	delivery, err := h.otpService.Generate(c.Request.Context(), user.ID, purpose)
	if err != nil {
		respondError(c, err)
		return
	}

	// The code itself goes out through the delivery channel, never in
	// this response.
	c.JSON(http.StatusOK, gin.H{
		"userId":    delivery.UserID,
		"purpose":   delivery.Purpose,
		"expiresAt": delivery.ExpiresAt,
	})
}

type verifyOtpRequest struct {
	Purpose   string `json:"purpose" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

func (h HandlerSet) VerifyOtp(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purpose, ok := models.ParseOtpPurpose(req.Purpose)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown purpose"})
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), user.ID, purpose, req.Timestamp, req.Code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "verified"})
}

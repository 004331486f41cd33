package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learnstack/api/internal/models"
	"learnstack/api/internal/service"
)

type registerRequest struct {
	Role        string `json:"role" binding:"required"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Mobile      string `json:"mobile"`
	Password    string `json:"password" binding:"required,min=8"`
	Platform    string `json:"platform"`
}

type userResponse struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email,omitempty"`
	Mobile           string     `json:"mobile,omitempty"`
	Role             string     `json:"role"`
	IsMobileVerified bool       `json:"isMobileVerified"`
	IsEmailVerified  bool       `json:"isEmailVerified"`
	IsSignupComplete bool       `json:"isSignupComplete"`
	Active           bool       `json:"active"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         userResponse `json:"user"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:               user.ID,
		Email:            user.EmailOrEmpty(),
		Mobile:           user.FullMobile(),
		Role:             string(user.Role),
		IsMobileVerified: user.IsMobileVerified,
		IsEmailVerified:  user.IsEmailVerified,
		IsSignupComplete: user.IsSignupComplete,
		Active:           user.Active,
		LastLoginAt:      user.LastLoginAt,
	}
}

func sendAuthResponse(c *gin.Context, result service.AuthResult) {
	c.JSON(http.StatusOK, authResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshSecret,
		ExpiresIn:    result.ExpiresIn,
		User:         toUserResponse(result.User),
	})
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Role:        models.ParseUserRole(req.Role),
		Email:       req.Email,
		CountryCode: req.CountryCode,
		Mobile:      req.Mobile,
		Password:    req.Password,
		Platform:    models.NormalizePlatform(req.Platform),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	sendAuthResponse(c, result)
}

type loginRequest struct {
	// Kind is optional; when omitted the loginId shape decides.
	Kind     string `json:"kind"`
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
	Platform string `json:"platform"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := service.LoginKind(req.Kind)
	if kind != service.LoginKindEmail && kind != service.LoginKindMobile {
		kind = service.ClassifyLoginID(req.LoginID)
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Kind:     kind,
		Value:    req.LoginID,
		Password: req.Password,
		Platform: models.NormalizePlatform(req.Platform),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	sendAuthResponse(c, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
	Platform     string `json:"platform"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var override models.Platform
	if req.Platform != "" {
		override = models.NormalizePlatform(req.Platform)
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, override)
	if err != nil {
		respondError(c, err)
		return
	}

	sendAuthResponse(c, result)
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h HandlerSet) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	// Same shape whether or not the account exists.
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h HandlerSet) ValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	valid, err := h.authService.ValidateResetToken(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user"})
		return models.User{}, false
	}
	return user, true
}

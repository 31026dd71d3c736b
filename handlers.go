package main

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"ffstats/models"
	"ffstats/pkg/fpl"
	"ffstats/pkg/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var managerIDRE = regexp.MustCompile(`^\d+$`)

// Validation details report the json field names the SPA sends, not the Go
// struct field names.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// server bundles the constructed dependencies so handlers never reach for
// process globals.
type server struct {
	db        *gorm.DB
	auth      *AuthService
	warehouse *warehouse.Client
	fpl       *fpl.Client
	log       *logrus.Logger
	startedAt time.Time
}

func setupRoutes(r *gin.Engine, s *server) {
	// any uncaught panic still answers with the standard error envelope
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		s.log.WithField("panic", err).Error("recovered from panic")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal server error occurred")
		c.Abort()
	}))

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.healthHandler)

	auth := v1.Group("/auth")
	auth.POST("/register", s.registerHandler)
	auth.POST("/login", s.loginHandler)
	auth.POST("/refresh", s.refreshHandler)
	auth.POST("/logout", s.authMiddleware(), s.logoutHandler)

	protected := v1.Group("")
	protected.Use(s.authMiddleware())
	protected.GET("/users/me", s.getMeHandler)
	protected.PATCH("/users/me", s.updateMeHandler)
	protected.GET("/players", s.listPlayersHandler)
	protected.GET("/players/:id", s.getPlayerHandler)
	protected.GET("/teams", s.listTeamsHandler)
	protected.GET("/manager/:managerId", s.managerHistoryHandler)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
	})
}

/* ---------- response envelopes ---------- */

type errorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details ...errorDetail) {
	body := gin.H{"code": code, "message": message}
	if len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, gin.H{"error": body})
}

// bindingDetails flattens validator errors into field-level messages so the
// SPA can attach them to form inputs.
func bindingDetails(err error) []errorDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]errorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, errorDetail{
			Field:   fe.Field(),
			Message: "failed on " + fe.Tag() + " validation",
		})
	}
	return details
}

func respondBindingError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", bindingDetails(err)...)
}

/* ---------- auth middleware ---------- */

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxManagerID = "userManagerID"
)

// authMiddleware gates protected routes on a valid access token and an
// existing, active account. A bad token and a deactivated account produce
// the same message so callers cannot probe account state.
func (s *server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if authHeader == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Access token is required")
			c.Abort()
			return
		}

		userID, err := s.auth.tokens.Verify(parts[1])
		if err != nil {
			respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid or expired token")
			c.Abort()
			return
		}

		var user models.User
		if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil || !user.IsActive {
			respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUserEmail, user.Email)
		c.Set(ctxManagerID, user.ManagerID)
		c.Next()
	}
}

/* ---------- auth routes ---------- */

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		ManagerID string `json:"managerId" binding:"required"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	if !managerIDRE.MatchString(req.ManagerID) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data",
			errorDetail{Field: "managerId", Message: "Manager ID must be a valid number"})
		return
	}

	creds, err := s.auth.Register(c.Request.Context(), req.Email, req.ManagerID, req.Password)
	switch {
	case errors.Is(err, ErrEmailExists):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email already exists",
			errorDetail{Field: "email", Message: "This email is already registered"})
	case err != nil:
		s.log.WithError(err).Error("registration failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed")
	default:
		c.JSON(http.StatusCreated, creds)
	}
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	creds, err := s.auth.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe, c.ClientIP(), c.Request.UserAgent())
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid email or password")
	case errors.Is(err, ErrOAuthUser):
		respondError(c, http.StatusBadRequest, "AUTHENTICATION_ERROR", "Please use OAuth to sign in")
	case err != nil:
		s.log.WithError(err).Error("login failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
	default:
		c.JSON(http.StatusOK, creds)
	}
}

func (s *server) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	result, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, ErrInvalidRefreshToken):
		respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid or expired refresh token")
	case err != nil:
		s.log.WithError(err).Error("token refresh failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Token refresh failed")
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (s *server) logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&req) // body is optional

	if req.RefreshToken != "" {
		if err := s.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			s.log.WithError(err).Error("logout failed")
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

/* ---------- user routes ---------- */

func (s *server) getMeHandler(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var user models.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"managerId": user.ManagerID,
		"createdAt": user.CreatedAt,
	})
}

func (s *server) updateMeHandler(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var req struct {
		ManagerID string `json:"managerId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	if req.ManagerID != "" && !managerIDRE.MatchString(req.ManagerID) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Manager ID must be a valid number")
		return
	}

	var user models.User
	if err := s.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}
	if req.ManagerID != "" {
		if err := s.db.WithContext(c.Request.Context()).Model(&user).Update("manager_id", req.ManagerID).Error; err != nil {
			s.log.WithError(err).Error("profile update failed")
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user profile")
			return
		}
		user.ManagerID = req.ManagerID
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"managerId": user.ManagerID,
		"updatedAt": user.UpdatedAt,
	})
}

/* ---------- health ---------- */

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "fantasy-football-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Seconds(),
	})
}

package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/blacklist"
	"github.com/docstack/docstack/internal/config"
	"github.com/docstack/docstack/internal/models"
	"github.com/docstack/docstack/internal/tokens"
	"github.com/docstack/docstack/internal/users"
	"github.com/docstack/docstack/pkg/logger"
	"github.com/docstack/docstack/pkg/middleware"
)

// FieldError is one entry of the validation errors array
// ({msg, param}, express-validator shape the frontend already parses).
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

// AuthHandler serves registration, login and the session-ish endpoints.
type AuthHandler struct {
	cfg      *config.Config
	usersSvc *users.Service
	revoked  *blacklist.Store
}

func NewAuthHandler(cfg *config.Config, u *users.Service, revoked *blacklist.Store) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, revoked: revoked}
}

// Register mounts the auth routes under the given group.
func (h *AuthHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.POST("/register", h.RegisterUser)
	rg.POST("/login", h.Login)
	rg.GET("/profile", auth, h.Profile)
	rg.POST("/refresh", auth, h.Refresh)
	rg.POST("/logout", auth, h.Logout)
}

type registerRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Country      string `json:"country"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

func validateRegister(req *registerRequest) []FieldError {
	errs := []FieldError{}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Country = strings.TrimSpace(req.Country)
	if req.FirstName == "" {
		errs = append(errs, FieldError{Msg: "First name is required", Param: "firstName"})
	}
	if req.LastName == "" {
		errs = append(errs, FieldError{Msg: "Last name is required", Param: "lastName"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, FieldError{Msg: "Valid email is required", Param: "email"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, FieldError{Msg: "Password must be at least 6 characters", Param: "password"})
	}
	if !req.AgreeToTerms {
		errs = append(errs, FieldError{Msg: "You must agree to terms", Param: "agreeToTerms"})
	}
	return errs
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// RegisterUser implements POST /api/register.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{{Msg: "Invalid request body", Param: "body"}}})
		return
	}
	if errs := validateRegister(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	u, err := h.usersSvc.Register(c.Request.Context(), users.RegisterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Country:      req.Country,
		AgreeToTerms: req.AgreeToTerms,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			logger.Warnf("registration rejected, email already registered: %s", req.Email)
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
			return
		}
		logger.Errorf("registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}

	token, err := tokens.Generate(h.cfg.JWT.Secret, u, h.cfg.JWT.TTL)
	if err != nil {
		logger.Errorf("token generation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login implements POST /api/login. The 401 message is identical for unknown
// emails and wrong passwords.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []FieldError{{Msg: "Invalid request body", Param: "body"}}})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	errs := []FieldError{}
	if !validEmail(req.Email) {
		errs = append(errs, FieldError{Msg: "Valid email is required", Param: "email"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Msg: "Password is required", Param: "password"})
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		logger.Errorf("login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	token, err := tokens.Generate(h.cfg.JWT.Secret, u, h.cfg.JWT.TTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": shortUser(u)})
}

// Profile implements GET /api/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	u := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": u.Profile()})
}

// Refresh re-mints a token for the authenticated user.
func (h *AuthHandler) Refresh(c *gin.Context) {
	u := middleware.CurrentUser(c)
	token, err := tokens.Generate(h.cfg.JWT.Secret, u, h.cfg.JWT.TTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed successfully", "token": token, "user": shortUser(u)})
}

// Logout revokes the presented token for its remaining lifetime when Redis is
// configured; otherwise clients just drop the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := middleware.BearerToken(c)
	if claims, err := tokens.Parse(h.cfg.JWT.Secret, raw); err == nil && !claims.ExpiresAt.IsZero() {
		ttl := time.Until(claims.ExpiresAt)
		if err := h.revoked.Add(c.Request.Context(), raw, ttl); err != nil {
			logger.Warnf("failed to blacklist token: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func shortUser(u *models.User) gin.H {
	return gin.H{"name": u.FirstName, "firstName": u.FirstName, "email": u.Email}
}

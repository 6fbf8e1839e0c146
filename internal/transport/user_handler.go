package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150" example:"alice"`
	Email     string `json:"email" validate:"omitempty,email,max=254" example:"alice@example.com"`
	Password  string `json:"password" validate:"required,min=8" example:"s3cret-pass"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// TokenRequest represents the token obtain request payload
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenPairResponse is returned by the token obtain endpoint
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessTokenResponse is returned by the token refresh endpoint
type AccessTokenResponse struct {
	Access string `json:"access"`
}

// LogoutResponse reports how many refresh tokens were revoked
type LogoutResponse struct {
	Revoked int `json:"revoked"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func newUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user and token routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		// Public routes
		r.Post("/register", h.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.GetProfile)
		})
	})

	r.Route("/api/token", func(r chi.Router) {
		r.Post("/", h.ObtainToken)
		r.Post("/refresh", h.RefreshToken)
	})
}

// Register handles user registration
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} UserProfile
// @Failure 400 {object} middleware.ErrorResponse
// @Router /api/users/register/ [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			h.logger.Debug("Registration rejected, username taken", zap.String("username", req.Username))
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "username", Message: "A user with that username already exists."},
			})
			return
		}
		respondServiceError(w, r, h.logger, err, "Registration")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, newUserProfile(user))
}

// ObtainToken exchanges credentials for an access and refresh token pair
// @Summary Obtain a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Credentials"
// @Success 200 {object} TokenPairResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/token/ [post]
func (h *UserHandler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	accessToken, refreshToken, user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Debug("Login failed", zap.String("username", req.Username))
			middleware.RespondWithError(w, http.StatusUnauthorized, "No active account found with the given credentials")
			return
		}
		respondServiceError(w, r, h.logger, err, "Login")
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, TokenPairResponse{Access: accessToken, Refresh: refreshToken})
}

// RefreshToken handles token refresh
// @Summary Refresh an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AccessTokenResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /api/token/refresh/ [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	accessToken, err := h.userService.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
			h.logger.Debug("Token refresh failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		respondServiceError(w, r, h.logger, err, "Token refresh")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, AccessTokenResponse{Access: accessToken})
}

// Logout revokes the given refresh token, or every refresh token of the caller when
// the body is empty
// @Summary Log out
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token to revoke"
// @Success 200 {object} LogoutResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/users/logout/ [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("Logout decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Refresh != "" {
		if err := h.userService.Logout(r.Context(), req.Refresh); err != nil {
			respondServiceError(w, r, h.logger, err, "Logout")
			return
		}
		h.logger.Info("User logged out", zap.String("user_id", userID.String()))
		middleware.RespondWithJSON(w, http.StatusOK, LogoutResponse{Revoked: 1})
		return
	}

	revoked, err := h.userService.LogoutAll(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Logout")
		return
	}

	h.logger.Info("User logged out everywhere",
		zap.String("user_id", userID.String()),
		zap.Int("revoked", revoked),
	)
	middleware.RespondWithJSON(w, http.StatusOK, LogoutResponse{Revoked: revoked})
}

// GetProfile returns the authenticated user
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} UserProfile
// @Failure 401 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /api/users/me/ [get]
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "User not found")
			return
		}
		respondServiceError(w, r, h.logger, err, "Get user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(user))
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/auth"
	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/models"
)

// AuthHandler handles authentication and profile requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := readJSON(r, &loginReq); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		writeMsg(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userCollection.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(loginReq.Email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMsg(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeServiceError(w, r, err, "", "Server error during login")
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeMsg(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeServiceError(w, r, err, "", "Server error during login")
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("User logged in")
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token: token,
		User: models.AuthUser{
			ID:    user.ID.Hex(),
			Email: user.Email,
			Role:  user.Role,
			Name:  user.Name,
		},
	})
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := readJSON(r, &registerReq); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	registerReq.Email = strings.ToLower(strings.TrimSpace(registerReq.Email))
	if registerReq.Email == "" || registerReq.Password == "" {
		writeMsg(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if err := h.authService.ValidateEmail(registerReq.Email); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if registerReq.Role == "" {
		registerReq.Role = models.RoleServiceAdvisor
	}
	if !models.IsValidRole(registerReq.Role) {
		writeMsg(w, http.StatusBadRequest, "Invalid role")
		return
	}

	if _, err := h.userCollection.FindUserByEmail(r.Context(), registerReq.Email); err == nil {
		writeMsg(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		writeServiceError(w, r, err, "", "Server error during registration")
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		writeServiceError(w, r, err, "", "Server error during registration")
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(registerReq.Name),
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		// a concurrent registration can still hit the unique index
		if errors.Is(err, db.ErrDuplicate) {
			writeMsg(w, http.StatusBadRequest, "Email already registered")
			return
		}
		writeServiceError(w, r, err, "", "Server error during registration")
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("User registered")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"msg":    "User registered successfully",
		"userId": user.ID,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err, "User not found", "Server error fetching profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's name and/or password
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var updateReq struct {
		Name     *string `json:"name"`
		Password string  `json:"password"`
	}
	if err := readJSON(r, &updateReq); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err, "User not found", "Server error updating profile")
		return
	}

	if updateReq.Name != nil {
		user.Name = *updateReq.Name
	}
	if updateReq.Password != "" {
		if err := h.authService.ValidatePassword(updateReq.Password); err != nil {
			writeMsg(w, http.StatusBadRequest, "Password must be at least 6 characters")
			return
		}
		hash, err := h.authService.HashPassword(updateReq.Password)
		if err != nil {
			writeServiceError(w, r, err, "", "Server error updating profile")
			return
		}
		user.PasswordHash = hash
	}

	if err := h.userCollection.UpdateUser(r.Context(), user); err != nil {
		writeServiceError(w, r, err, "User not found", "Server error updating profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg": "Profile updated successfully",
		"user": models.AuthUser{
			ID:    user.ID.Hex(),
			Email: user.Email,
			Role:  user.Role,
			Name:  user.Name,
		},
	})
}

// Technicians lists the users that can be assigned to job cards
func (h *AuthHandler) Technicians(w http.ResponseWriter, r *http.Request) {
	users, err := h.userCollection.FindUsersByRole(r.Context(), models.RoleTechnician)
	if err != nil {
		writeServiceError(w, r, err, "", "Server error fetching technicians")
		return
	}

	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	writeJSON(w, http.StatusOK, refs)
}

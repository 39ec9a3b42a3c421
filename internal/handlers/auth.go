package handlers

import (
	"net/http"

	"github.com/nikhil/sharenet/internal/logger"
	services "github.com/nikhil/sharenet/internal/service/auth"
)

type AuthHandler struct {
	Service *services.AuthService
	Log     *logger.Logger
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(service *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Service: service, Log: log.Named("auth-handler")}
}

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup handles the user registration request
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.Service.Signup(r.Context(), services.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"code":         "200",
		"message":      "User created successfully",
		"user_details": user,
		"token":        token,
	})
}

// Login handles the user authentication request
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":        token,
		"userType":     user.UserType,
		"user_details": user,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/middleware"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report json names in validation messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithMsg(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"msg": msg})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError translates a service error. Domain failures carry
// {"msg"}; auth, permission and internal failures carry {"error"}.
func respondWithAppError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	code := apperrors.HTTPStatus(err)
	switch code {
	case http.StatusBadRequest, http.StatusNotFound:
		respondWithMsg(w, code, apperrors.PublicMessage(err))
	case http.StatusUnauthorized, http.StatusForbidden:
		respondWithError(w, code, apperrors.PublicMessage(err))
	default:
		log.WithContext(r.Context()).Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the caller should
// continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithMsg(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondWithMsg(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request payload"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// currentUser fetches the authenticated caller or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*usermodels.User, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "No token, authorization denied")
		return nil, false
	}
	return user, true
}

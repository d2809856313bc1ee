package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/bricola/authcore"
)

const maxBodyBytes = 1 << 20

// tokenContext selects how ErrInvalidToken is reported. Single-use codes in
// request bodies are client input errors; session tokens are authentication
// failures.
type tokenContext int

const (
	tokenInBody tokenContext = iota
	tokenSession
)

type messageReply struct {
	Message string `json:"message"`
}

type validationReply struct {
	Message string            `json:"message"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Marshal response: %v", err)
		code = http.StatusInternalServerError
		response = []byte(`{"message":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, messageReply{Message: message})
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind authcore.Kind, tc tokenContext) int {
	switch kind {
	case authcore.KindWeakPassword, authcore.KindEmailAlreadyVerified:
		return http.StatusBadRequest
	case authcore.KindEmailAlreadyExists:
		return http.StatusConflict
	case authcore.KindInvalidCredentials, authcore.KindTokenExpired:
		return http.StatusUnauthorized
	case authcore.KindInvalidToken:
		if tc == tokenSession {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case authcore.KindEmailNotVerified, authcore.KindUserNotActive:
		return http.StatusForbidden
	case authcore.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes err as {message}. Internal causes are logged and
// replaced by the generic message.
func respondWithError(w http.ResponseWriter, r *http.Request, err error, tc tokenContext) {
	kind := authcore.KindOf(err)
	code := statusFor(kind, tc)

	var e *authcore.Error
	if kind == authcore.KindInternal || !errors.As(err, &e) {
		log.Errorf("%v %v %v: %v", remoteAddr(r), r.Method, r.URL.Path, err)
		respondWithMessage(w, http.StatusInternalServerError, authcore.ErrInternal.Message)
		return
	}
	respondWithMessage(w, code, e.Message)
}

// decodeRequest reads a JSON body into dst and validates it. It writes the
// 400 response itself and reports false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validation.Validatable) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := dst.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			respondWithJSON(w, http.StatusBadRequest, validationReply{
				Message: "Validation failed",
				Errors:  verrs,
			})
			return false
		}
		respondWithMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bricola/authcore"
	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/middleware"
)

type sessionReply struct {
	Message     string           `json:"message,omitempty"`
	AccessToken string           `json:"access_token"`
	User        *account.Account `json:"user,omitempty"`
}

type userReply struct {
	Message string           `json:"message,omitempty"`
	User    *account.Account `json:"user"`
}

// startSession sets the refresh cookie and writes the access token.
func (s *Server) startSession(w http.ResponseWriter, res *authcore.Result, withUser bool) {
	if res.Tokens == nil {
		respondWithMessage(w, http.StatusOK, res.Message)
		return
	}
	s.setRefreshCookie(w, res.Tokens.RefreshToken)

	reply := sessionReply{
		Message:     res.Message,
		AccessToken: res.Tokens.AccessToken,
	}
	if withUser {
		reply.User = res.Account
	}
	respondWithJSON(w, http.StatusOK, reply)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.Register(r.Context(), authcore.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.profile(),
	})
	if err != nil {
		respondWithError(w, r, err, tokenInBody)
		return
	}
	respondWithMessage(w, http.StatusCreated, res.Message)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.VerifyEmail(r.Context(), req.Email, req.Token)
	if err != nil {
		respondWithError(w, r, err, tokenInBody)
		return
	}
	s.startSession(w, res, false)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err, tokenSession)
		return
	}
	s.startSession(w, res, true)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.ResendVerificationEmail(r.Context(), req.Email)
	if err != nil {
		respondWithError(w, r, err, tokenInBody)
		return
	}
	respondWithMessage(w, http.StatusOK, res.Message)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.SendResetPasswordEmail(r.Context(), req.Email)
	if err != nil {
		respondWithError(w, r, err, tokenInBody)
		return
	}
	respondWithMessage(w, http.StatusOK, res.Message)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := s.engine.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		respondWithError(w, r, err, tokenInBody)
		return
	}
	s.startSession(w, res, false)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		respondWithMessage(w, http.StatusForbidden, "Refresh token not found")
		return
	}

	res, err := s.engine.RefreshToken(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, authcore.ErrInvalidToken) || errors.Is(err, authcore.ErrTokenExpired) {
			s.clearRefreshCookie(w)
		}
		respondWithError(w, r, err, tokenSession)
		return
	}

	s.setRefreshCookie(w, res.Tokens.RefreshToken)
	respondWithJSON(w, http.StatusOK, sessionReply{AccessToken: res.Tokens.AccessToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	res, err := s.engine.Logout(r.Context(), p.Account.ID)
	if err != nil {
		respondWithError(w, r, err, tokenSession)
		return
	}
	s.clearRefreshCookie(w)
	respondWithMessage(w, http.StatusOK, res.Message)
}

func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req ChangeEmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())

	res, err := s.engine.RequestEmailChange(r.Context(), p.Account.ID, req.NewEmail)
	if err != nil {
		respondWithError(w, r, err, tokenSession)
		return
	}
	respondWithMessage(w, http.StatusOK, res.Message)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, userReply{User: p.Account})
}

func (s *Server) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	var req AccountStatusRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]

	res, err := s.engine.SetAccountActive(r.Context(), id, *req.Active, req.Motive)
	if err != nil {
		respondWithError(w, r, err, tokenSession)
		return
	}
	respondWithJSON(w, http.StatusOK, userReply{Message: res.Message, User: res.Account})
}

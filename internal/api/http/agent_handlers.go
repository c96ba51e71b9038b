package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type verifyMobileRequest struct {
	MobileNumber string `json:"mobile_number"`
}

type verifyOTPRequest struct {
	MobileNumber string `json:"mobile_number"`
	OTP          string `json:"otp"`
}

func (s *Server) verifyAgentMobile(w http.ResponseWriter, r *http.Request) {
	var req verifyMobileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, err := s.agentSvc.VerifyMobile(r.Context(), req.MobileNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Hello " + a.Name() + "! An OTP has been sent to your registered mobile number. Please type it here.",
		"data": map[string]interface{}{
			"agent_id": a.ID,
		},
	})
}

func (s *Server) verifyAgentOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a, sess, err := s.agentSvc.VerifyOTP(r.Context(), req.MobileNumber, req.OTP)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "You are verified! ✅ What would you like to do?",
		"options": []string{"Register FASTag", "Replace FASTag"},
		"data": map[string]interface{}{
			"agent_id":     a.ID,
			"session_id":   sess.SessionID,
			"fastags_left": a.FastagsLeft,
		},
	})
}

func (s *Server) agentSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "agentId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid agent id")
		return
	}
	a, err := s.agentSvc.Snapshot(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

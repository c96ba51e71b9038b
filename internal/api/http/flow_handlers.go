package httpapi

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type flowRequest struct {
	SessionID string `json:"session_id"`

	VehicleNumber string `json:"vehicle_number,omitempty"`
	EngineNumber  string `json:"engine_number,omitempty"`
	MobileNumber  string `json:"mobile_number,omitempty"`
	OTP           string `json:"otp,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	DOB           string `json:"dob,omitempty"`
	IDType        string `json:"id_type,omitempty"`
	IDNumber      string `json:"id_number,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	PlanID        string `json:"plan_id,omitempty"`
	ImageType     string `json:"image_type,omitempty"`
	Image         string `json:"image,omitempty"`
	SerialNumber  string `json:"serial_number,omitempty"`
	Barcode       string `json:"barcode,omitempty"`
	Maker         string `json:"maker,omitempty"`
	Model         string `json:"model,omitempty"`
	Descriptor    string `json:"descriptor,omitempty"`
	Answer        string `json:"answer,omitempty"`
}

func (s *Server) decodeFlowRequest(w http.ResponseWriter, r *http.Request) (*flowRequest, uuid.UUID, bool) {
	var req flowRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session_id")
		return nil, uuid.Nil, false
	}
	return &req, id, true
}

func (s *Server) startIssuance(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.StartIssuance(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) startReplacement(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.StartReplacement(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitVehicleDetails(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitVehicleDetails(r.Context(), id, req.VehicleNumber, req.EngineNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitUserMobile(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitUserMobile(r.Context(), id, req.MobileNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitUserOTP(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitUserOTP(r.Context(), id, req.OTP)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitUserInfo(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitUserInfo(r.Context(), id, req.FirstName, req.LastName, req.DOB)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitIDProof(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitIDProof(r.Context(), id, req.IDType, req.IDNumber, req.ExpiryDate)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) selectPlan(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SelectPlan(r.Context(), id, req.PlanID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) beginDocumentUpload(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.BeginDocumentUpload(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image must be base64 encoded")
		return
	}
	reply, err := s.flowSvc.UploadDocument(r.Context(), id, req.ImageType, image)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) submitSerialNumber(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SubmitSerialNumber(r.Context(), id, req.SerialNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) selectBarcode(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SelectBarcode(r.Context(), id, req.Barcode)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) selectMaker(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SelectMaker(r.Context(), id, req.Maker)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) selectModel(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SelectModel(r.Context(), id, req.Model)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) selectDescriptor(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.SelectDescriptor(r.Context(), id, req.Descriptor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) confirmFlow(w http.ResponseWriter, r *http.Request) {
	req, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	var confirm bool
	switch strings.ToLower(strings.TrimSpace(req.Answer)) {
	case "yes", "y":
		confirm = true
	case "no", "n":
		confirm = false
	default:
		respondError(w, http.StatusBadRequest, "answer must be Yes or No")
		return
	}
	reply, err := s.flowSvc.Confirm(r.Context(), id, confirm)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) cancelFlow(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.decodeFlowRequest(w, r)
	if !ok {
		return
	}
	reply, err := s.flowSvc.Cancel(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondReply(w, reply)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.flowSvc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

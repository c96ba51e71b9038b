// Package httpapi exposes the conversation flow over HTTP. The WhatsApp
// gateway is expected to translate inbound messages into these calls.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAgent "github.com/shauryapay/fastag-hub/internal/application/agent"
	appFlow "github.com/shauryapay/fastag-hub/internal/application/flow"
	domainAgent "github.com/shauryapay/fastag-hub/internal/domain/agent"
	"github.com/shauryapay/fastag-hub/internal/domain/fastag"
	"github.com/shauryapay/fastag-hub/internal/domain/issuance"
	"github.com/shauryapay/fastag-hub/internal/domain/session"
	"github.com/shauryapay/fastag-hub/internal/validate"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	agentSvc *appAgent.Service
	flowSvc  *appFlow.Service
}

func NewServer(agentSvc *appAgent.Service, flowSvc *appFlow.Service) *Server {
	return &Server{
		agentSvc: agentSvc,
		flowSvc:  flowSvc,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/agents", func(r chi.Router) {
			r.Post("/verify-mobile", s.verifyAgentMobile)
			r.Post("/verify-otp", s.verifyAgentOTP)
			r.Get("/{agentId}", s.agentSnapshot)
		})

		r.Get("/sessions/{sessionId}", s.getSession)

		r.Route("/flows", func(r chi.Router) {
			r.Post("/cancel", s.cancelFlow)

			r.Route("/issuance", func(r chi.Router) {
				r.Post("/start", s.startIssuance)
				r.Post("/vehicle-details", s.submitVehicleDetails)
				r.Post("/user-mobile", s.submitUserMobile)
				r.Post("/verify-otp", s.submitUserOTP)
				r.Post("/user-info", s.submitUserInfo)
				r.Post("/id-proof", s.submitIDProof)
				r.Post("/plan", s.selectPlan)
				r.Post("/documents/begin", s.beginDocumentUpload)
				r.Post("/documents", s.uploadDocument)
				r.Post("/serial-number", s.submitSerialNumber)
				r.Post("/barcode", s.selectBarcode)
				r.Post("/vehicle-maker", s.selectMaker)
				r.Post("/vehicle-model", s.selectModel)
				r.Post("/vehicle-descriptor", s.selectDescriptor)
				r.Post("/confirm", s.confirmFlow)
			})

			r.Route("/replacement", func(r chi.Router) {
				r.Post("/start", s.startReplacement)
				r.Post("/user-mobile", s.submitUserMobile)
				r.Post("/verify-otp", s.submitUserOTP)
				r.Post("/plan", s.selectPlan)
				r.Post("/barcode", s.selectBarcode)
				r.Post("/confirm", s.confirmFlow)
			})
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the conversational error body. The gateway relays
// "detail" verbatim to the user.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var ierr *issuance.Error
	if errors.As(err, &ierr) {
		if ierr.Reason == issuance.ReasonTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, domainAgent.ErrNotFound),
		errors.Is(err, fastag.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStateMismatch),
		errors.Is(err, session.ErrTerminal),
		errors.Is(err, session.ErrConflict),
		errors.Is(err, session.ErrNotOnPath),
		errors.Is(err, domainAgent.ErrInsufficientInventory):
		return http.StatusConflict
	case errors.Is(err, domainAgent.ErrBadOTP),
		errors.Is(err, appFlow.ErrOTPRejected):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondReply(w http.ResponseWriter, reply *appFlow.Reply) {
	respondJSON(w, http.StatusOK, reply)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

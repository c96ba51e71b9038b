package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FlowKind selects which conversation path a session follows.
type FlowKind string

const (
	FlowIssuance    FlowKind = "ISSUANCE"
	FlowReplacement FlowKind = "REPLACEMENT"
)

// State is one step of the conversation. The state alone determines which
// input the session currently accepts.
type State string

const (
	StateStarted           State = "STARTED"
	StateVehicleDetails    State = "VEHICLE_DETAILS"
	StateUserMobile        State = "USER_MOBILE"
	StateUserOTPPending    State = "USER_OTP_PENDING"
	StateUserInfo          State = "USER_INFO"
	StateIDProof           State = "ID_PROOF"
	StatePlanSelection     State = "PLAN_SELECTION"
	StateWalletCreated     State = "WALLET_CREATED"
	StateDocsUpload        State = "DOCS_UPLOAD"
	StateSerialNumber      State = "SERIAL_NUMBER"
	StateBarcodeSelection  State = "BARCODE_SELECTION"
	StateVehicleMaker      State = "VEHICLE_MAKER"
	StateVehicleModel      State = "VEHICLE_MODEL"
	StateVehicleDescriptor State = "VEHICLE_DESCRIPTOR"
	StateConfirmation      State = "CONFIRMATION"
	StateCompleted         State = "COMPLETED"
	StateCancelled         State = "CANCELLED"
)

// ID proof types accepted at the ID_PROOF step.
const (
	IDProofPAN            = "PAN"
	IDProofPassport       = "PASSPORT"
	IDProofDrivingLicense = "DRIVING_LICENSE"
	IDProofVoterID        = "VOTER_ID"
)

// RequiredDocuments are the document types collected during DOCS_UPLOAD,
// in prompt order.
var RequiredDocuments = []string{
	"RC_FRONT",
	"RC_BACK",
	"VEHICLE_FRONT",
	"VEHICLE_SIDE",
	"TAG_FIXED",
}

var (
	ErrNotFound      = errors.New("session not found")
	ErrStateMismatch = errors.New("operation does not match session state")
	ErrTerminal      = errors.New("session is already completed or cancelled")
	ErrConflict      = errors.New("session was modified concurrently")
	ErrNotOnPath     = errors.New("state is not on the session's flow path")
)

var issuancePath = []State{
	StateStarted,
	StateVehicleDetails,
	StateUserMobile,
	StateUserOTPPending,
	StateUserInfo,
	StateIDProof,
	StatePlanSelection,
	StateWalletCreated,
	StateDocsUpload,
	StateSerialNumber,
	StateBarcodeSelection,
	StateVehicleMaker,
	StateVehicleModel,
	StateVehicleDescriptor,
	StateConfirmation,
	StateCompleted,
}

var replacementPath = []State{
	StateStarted,
	StateUserMobile,
	StateUserOTPPending,
	StatePlanSelection,
	StateBarcodeSelection,
	StateConfirmation,
	StateCompleted,
}

// Path returns the ordered states for a flow kind.
func Path(kind FlowKind) []State {
	if kind == FlowReplacement {
		return replacementPath
	}
	return issuancePath
}

// Session is one in-progress or finished registration/replacement flow.
// Collected fields stay nil until the step that gathers them has succeeded.
type Session struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	FlowKind  FlowKind  `json:"flowKind"`
	State     State     `json:"state"`
	AgentID   int64     `json:"agentId"`

	VehicleNumber     *string           `json:"vehicleNumber,omitempty"`
	EngineNumber      *string           `json:"engineNumber,omitempty"`
	UserMobile        *string           `json:"userMobile,omitempty"`
	OTPVerified       bool              `json:"otpVerified"`
	FirstName         *string           `json:"firstName,omitempty"`
	LastName          *string           `json:"lastName,omitempty"`
	DOB               *string           `json:"dob,omitempty"`
	IDProofType       *string           `json:"idProofType,omitempty"`
	IDProofNumber     *string           `json:"idProofNumber,omitempty"`
	IDExpiry          *string           `json:"idExpiry,omitempty"`
	PlanID            *string           `json:"planId,omitempty"`
	Documents         map[string]string `json:"documents,omitempty"`
	SerialNumber      *string           `json:"serialNumber,omitempty"`
	Barcode           *string           `json:"barcode,omitempty"`
	BarcodeOptions    []string          `json:"barcodeOptions,omitempty"`
	VehicleMaker      *string           `json:"vehicleMaker,omitempty"`
	VehicleModel      *string           `json:"vehicleModel,omitempty"`
	VehicleDescriptor *string           `json:"vehicleDescriptor,omitempty"`

	// Correlation references returned by the issuance provider.
	RequestID         *string `json:"requestId,omitempty"`
	ProviderSessionID *string `json:"providerSessionId,omitempty"`
	CustomerRef       *string `json:"customerRef,omitempty"`

	// Version guards against concurrent transitions on the same session.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// New creates a session at the start of the given flow.
func New(agentID int64, kind FlowKind, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID: uuid.New(),
		FlowKind:  kind,
		State:     StateStarted,
		AgentID:   agentID,
		Documents: map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) IsTerminal() bool {
	return s.State == StateCompleted || s.State == StateCancelled
}

// Expect rejects a step invoked out of order. Terminal sessions reject
// every step.
func (s *Session) Expect(state State) error {
	if s.IsTerminal() {
		return ErrTerminal
	}
	if s.State != state {
		return ErrStateMismatch
	}
	return nil
}

func (s *Session) pathIndex(state State) int {
	for i, st := range Path(s.FlowKind) {
		if st == state {
			return i
		}
	}
	return -1
}

// Advance moves the session to the next state on its flow path.
func (s *Session) Advance() error {
	if s.IsTerminal() {
		return ErrTerminal
	}
	idx := s.pathIndex(s.State)
	if idx < 0 {
		return ErrNotOnPath
	}
	s.State = Path(s.FlowKind)[idx+1]
	return nil
}

// ReturnTo rewinds to an earlier editable state on the path, keeping every
// collected field. Used when the agent declines at CONFIRMATION.
func (s *Session) ReturnTo(state State) error {
	if s.IsTerminal() {
		return ErrTerminal
	}
	target := s.pathIndex(state)
	current := s.pathIndex(s.State)
	if target < 0 || current < 0 || target >= current {
		return ErrNotOnPath
	}
	s.State = state
	return nil
}

// Cancel moves any non-terminal session to CANCELLED.
func (s *Session) Cancel() error {
	if s.IsTerminal() {
		return ErrTerminal
	}
	s.State = StateCancelled
	return nil
}

// SetDocument records an uploaded document reference. Re-uploading the same
// type replaces the earlier reference instead of duplicating it.
func (s *Session) SetDocument(docType, ref string) {
	if s.Documents == nil {
		s.Documents = map[string]string{}
	}
	s.Documents[docType] = ref
}

// DocumentsComplete reports whether all required document types are present.
func (s *Session) DocumentsComplete() bool {
	for _, dt := range RequiredDocuments {
		if _, ok := s.Documents[dt]; !ok {
			return false
		}
	}
	return true
}

// IsIdle reports whether a non-terminal session has passed its TTL.
func (s *Session) IsIdle(now time.Time) bool {
	return !s.IsTerminal() && now.After(s.ExpiresAt)
}

// ParseIDProofType maps a menu choice ("1".."4") or a proof-type name to the
// canonical proof type.
func ParseIDProofType(raw string) (string, bool) {
	switch raw {
	case "1", IDProofPAN, "pan":
		return IDProofPAN, true
	case "2", IDProofPassport, "passport", "Passport":
		return IDProofPassport, true
	case "3", IDProofDrivingLicense, "driving license", "Driving License":
		return IDProofDrivingLicense, true
	case "4", IDProofVoterID, "voter id", "Voter ID":
		return IDProofVoterID, true
	default:
		return "", false
	}
}

// NeedsIDExpiry reports whether the proof type carries an expiry date.
func NeedsIDExpiry(idType string) bool {
	return idType == IDProofPassport || idType == IDProofDrivingLicense
}

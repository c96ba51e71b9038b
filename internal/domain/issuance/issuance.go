// Package issuance defines the boundary to the external KYC/wallet provider
// that generates OTPs, creates customer wallets and activates tags.
package issuance

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_client.go -package=mocks . Client

import "context"

// Reason classifies a provider failure.
type Reason string

const (
	ReasonTimeout   Reason = "TIMEOUT"
	ReasonRejected  Reason = "REJECTED"
	ReasonMalformed Reason = "MALFORMED"
)

// Error is a provider-side failure. The session that triggered the call is
// never advanced past it, so resubmitting the step is always safe.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "issuance provider error: " + string(e.Reason)
	}
	return "issuance provider error (" + string(e.Reason) + "): " + e.Message
}

// GenerateOTPRequest asks the provider to send an OTP to the vehicle
// owner's mobile.
type GenerateOTPRequest struct {
	VehicleNumber string
	AgentID       int64
	MobileNumber  string
	EngineNumber  string
}

// OTPChallenge correlates a pending OTP with later validation calls.
type OTPChallenge struct {
	RequestID         string
	ProviderSessionID string
}

// ValidateOTPRequest presents the OTP the user typed.
type ValidateOTPRequest struct {
	RequestID         string
	ProviderSessionID string
	AgentID           int64
	OTP               string
}

// CustomerDetails creates the customer wallet after OTP verification.
type CustomerDetails struct {
	ProviderSessionID string
	VehicleNumber     string
	FirstName         string
	LastName          string
	DOB               string
	DocType           string
	DocNumber         string
	ExpiryDate        string
	PlanID            string
}

// VehicleDetails finalizes the vehicle record before activation.
type VehicleDetails struct {
	ProviderSessionID string
	VehicleNumber     string
	AgentID           int64
	SerialNumber      string
	EngineNumber      string
	Maker             string
	Model             string
	Descriptor        string
}

// Activation is the provider's acknowledgement of a completed issuance.
type Activation struct {
	TagNumber string
	Status    string
}

// ReplacementRequest swaps a customer's tag for a new barcode.
type ReplacementRequest struct {
	CustomerMobile string
	NewBarcode     string
	PlanID         string
}

// Client wraps the provider's operations as typed calls with a bounded
// timeout. The client never retries; callers resubmit the failed step.
type Client interface {
	GenerateOTP(ctx context.Context, req GenerateOTPRequest) (*OTPChallenge, error)
	ValidateOTP(ctx context.Context, req ValidateOTPRequest) (bool, error)
	UpdateCustomer(ctx context.Context, details CustomerDetails) (customerRef string, err error)
	UploadDocument(ctx context.Context, providerSessionID, docType string, image []byte) error
	UpdateVehicle(ctx context.Context, details VehicleDetails) error
	Activate(ctx context.Context, providerSessionID, barcode string) (*Activation, error)
	ReplaceTag(ctx context.Context, req ReplacementRequest) error
	AvailableBarcodes(ctx context.Context, agentID int64) ([]string, error)
}

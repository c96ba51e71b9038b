// Package flow drives the conversation state machine. Each step loads the
// session, checks it is in the state the step expects, validates the input,
// performs the provider call the step requires, and only then persists the
// merged fields together with the state advance. Any failure before that
// final write leaves the session untouched, so resubmitting a step is
// always safe.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shauryapay/fastag-hub/internal/domain/agent"
	"github.com/shauryapay/fastag-hub/internal/domain/fastag"
	"github.com/shauryapay/fastag-hub/internal/domain/issuance"
	"github.com/shauryapay/fastag-hub/internal/domain/ledger"
	"github.com/shauryapay/fastag-hub/internal/domain/plan"
	"github.com/shauryapay/fastag-hub/internal/domain/session"
	"github.com/shauryapay/fastag-hub/internal/domain/vehicle"
	"github.com/shauryapay/fastag-hub/internal/validate"
)

// ErrOTPRejected means the provider did not accept the user's OTP. The
// session stays at USER_OTP_PENDING so the OTP can be retyped.
var ErrOTPRejected = errors.New("OTP was not accepted, please try again")

// UserOTPLength is the provider-issued OTP length for end users.
const UserOTPLength = 6

// Reply is what a successful step returns to the conversation channel.
type Reply struct {
	Message string                 `json:"message"`
	Options []string               `json:"options,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Options tunes flow behaviour.
type Options struct {
	SessionTTL time.Duration
	// Edit states are where a declined confirmation returns to.
	IssuanceEditState    session.State
	ReplacementEditState session.State
}

func (o *Options) withDefaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 24 * time.Hour
	}
	if o.IssuanceEditState == "" {
		o.IssuanceEditState = session.StateVehicleDetails
	}
	if o.ReplacementEditState == "" {
		o.ReplacementEditState = session.StateUserMobile
	}
}

// Service is the conversation state machine.
type Service struct {
	sessions session.Repository
	agents   agent.Repository
	fastags  fastag.Repository
	ledger   ledger.Ledger
	client   issuance.Client
	plans    *plan.Catalog
	opts     Options
	logger   zerolog.Logger
}

// NewService creates the flow service.
func NewService(
	sessions session.Repository,
	agents agent.Repository,
	fastags fastag.Repository,
	ledg ledger.Ledger,
	client issuance.Client,
	plans *plan.Catalog,
	opts Options,
	logger zerolog.Logger,
) *Service {
	opts.withDefaults()
	return &Service{
		sessions: sessions,
		agents:   agents,
		fastags:  fastags,
		ledger:   ledg,
		client:   client,
		plans:    plans,
		opts:     opts,
		logger:   logger.With().Str("service", "flow").Logger(),
	}
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID uuid.UUID, expect session.State) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Expect(expect); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return s.sessions.Update(ctx, sess)
}

// StartIssuance begins the registration path on a freshly created session.
func (s *Service) StartIssuance(ctx context.Context, sessionID uuid.UUID) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateStarted)
	if err != nil {
		return nil, err
	}
	sess.FlowKind = session.FlowIssuance
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptVehicleNumber}, nil
}

// StartReplacement begins the replacement path on a freshly created session.
func (s *Service) StartReplacement(ctx context.Context, sessionID uuid.UUID) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateStarted)
	if err != nil {
		return nil, err
	}
	sess.FlowKind = session.FlowReplacement
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptReplaceMobile}, nil
}

// SubmitVehicleDetails records the vehicle and engine numbers.
func (s *Service) SubmitVehicleDetails(ctx context.Context, sessionID uuid.UUID, vehicleNumber, engineNumber string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateVehicleDetails)
	if err != nil {
		return nil, err
	}
	vn, err := validate.VehicleNumber(vehicleNumber)
	if err != nil {
		return nil, err
	}
	en, err := validate.EngineNumber(engineNumber)
	if err != nil {
		return nil, err
	}
	sess.VehicleNumber = &vn
	sess.EngineNumber = &en
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptUserMobile}, nil
}

// SubmitUserMobile records the customer's mobile and asks the provider to
// send an OTP. Resubmitting regenerates the OTP.
func (s *Service) SubmitUserMobile(ctx context.Context, sessionID uuid.UUID, mobile string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateUserMobile)
	if err != nil {
		return nil, err
	}
	m, err := validate.MobileNumber(mobile)
	if err != nil {
		return nil, err
	}
	req := issuance.GenerateOTPRequest{AgentID: sess.AgentID, MobileNumber: m}
	if sess.FlowKind == session.FlowIssuance {
		req.VehicleNumber = *sess.VehicleNumber
		req.EngineNumber = *sess.EngineNumber
	}
	challenge, err := s.client.GenerateOTP(ctx, req)
	if err != nil {
		s.logRemoteFailure(sess, "generate_otp", err)
		return nil, err
	}
	sess.UserMobile = &m
	sess.RequestID = &challenge.RequestID
	sess.ProviderSessionID = &challenge.ProviderSessionID
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptOTP(m)}, nil
}

// SubmitUserOTP validates the OTP the customer typed with the provider.
func (s *Service) SubmitUserOTP(ctx context.Context, sessionID uuid.UUID, otp string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateUserOTPPending)
	if err != nil {
		return nil, err
	}
	code, err := validate.OTP(otp, UserOTPLength)
	if err != nil {
		return nil, err
	}
	verified, err := s.client.ValidateOTP(ctx, issuance.ValidateOTPRequest{
		RequestID:         strOr(sess.RequestID, ""),
		ProviderSessionID: strOr(sess.ProviderSessionID, ""),
		AgentID:           sess.AgentID,
		OTP:               code,
	})
	if err != nil {
		s.logRemoteFailure(sess, "validate_otp", err)
		return nil, err
	}
	if !verified {
		return nil, ErrOTPRejected
	}
	sess.OTPVerified = true
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if sess.FlowKind == session.FlowReplacement {
		return &Reply{Message: promptPlan, Options: s.plans.Options(time.Now())}, nil
	}
	return &Reply{Message: promptUserInfo}, nil
}

// SubmitUserInfo records the customer's name and date of birth.
func (s *Service) SubmitUserInfo(ctx context.Context, sessionID uuid.UUID, firstName, lastName, dob string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateUserInfo)
	if err != nil {
		return nil, err
	}
	fn, err := validate.Name(firstName)
	if err != nil {
		return nil, err
	}
	ln, err := validate.Name(lastName)
	if err != nil {
		return nil, err
	}
	d, err := validate.DOB(dob, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	sess.FirstName = &fn
	sess.LastName = &ln
	sess.DOB = &d
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptIDProof, Options: []string{"1", "2", "3", "4"}}, nil
}

// SubmitIDProof records the identity document.
func (s *Service) SubmitIDProof(ctx context.Context, sessionID uuid.UUID, idType, idNumber, expiry string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateIDProof)
	if err != nil {
		return nil, err
	}
	proofType, ok := session.ParseIDProofType(idType)
	if !ok {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "choose ID proof 1, 2, 3 or 4"}
	}
	number, err := validate.IDNumber(proofType, idNumber)
	if err != nil {
		return nil, err
	}
	if session.NeedsIDExpiry(proofType) {
		exp, err := parseExpiry(expiry)
		if err != nil {
			return nil, err
		}
		sess.IDExpiry = &exp
	}
	sess.IDProofType = &proofType
	sess.IDProofNumber = &number
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptPlan, Options: s.plans.Options(time.Now())}, nil
}

// SelectPlan picks a plan. On the issuance path this also creates the
// customer wallet with the provider.
func (s *Service) SelectPlan(ctx context.Context, sessionID uuid.UUID, planID string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StatePlanSelection)
	if err != nil {
		return nil, err
	}
	p, err := s.plans.Get(planID)
	if err != nil {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "unknown plan, pick one of the offered plans"}
	}
	if ok, err := p.AvailableAt(time.Now()); err != nil || !ok {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "plan " + p.Name + " is not available today"}
	}

	if sess.FlowKind == session.FlowReplacement {
		barcodes, err := s.client.AvailableBarcodes(ctx, sess.AgentID)
		if err != nil {
			s.logRemoteFailure(sess, "available_barcodes", err)
			return nil, err
		}
		if len(barcodes) == 0 {
			return nil, &issuance.Error{Reason: issuance.ReasonRejected, Message: "no barcodes available for this agent"}
		}
		sess.PlanID = &p.ID
		sess.BarcodeOptions = barcodes
		if err := sess.Advance(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Reply{Message: promptBarcodes(barcodes), Options: barcodes}, nil
	}

	customerRef, err := s.client.UpdateCustomer(ctx, issuance.CustomerDetails{
		ProviderSessionID: strOr(sess.ProviderSessionID, ""),
		VehicleNumber:     strOr(sess.VehicleNumber, ""),
		FirstName:         strOr(sess.FirstName, ""),
		LastName:          strOr(sess.LastName, ""),
		DOB:               strOr(sess.DOB, ""),
		DocType:           strOr(sess.IDProofType, ""),
		DocNumber:         strOr(sess.IDProofNumber, ""),
		ExpiryDate:        strOr(sess.IDExpiry, ""),
		PlanID:            p.ID,
	})
	if err != nil {
		s.logRemoteFailure(sess, "update_customer", err)
		return nil, err
	}
	sess.PlanID = &p.ID
	sess.CustomerRef = &customerRef
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptWalletCreated}, nil
}

// BeginDocumentUpload moves from the wallet checkpoint into the document
// upload loop.
func (s *Service) BeginDocumentUpload(ctx context.Context, sessionID uuid.UUID) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateWalletCreated)
	if err != nil {
		return nil, err
	}
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptNextDocument(sess), Options: session.RequiredDocuments}, nil
}

// UploadDocument uploads one of the five required images. The state stays
// at DOCS_UPLOAD until every required type has been received, whatever the
// upload order; re-uploading a type replaces the earlier image.
func (s *Service) UploadDocument(ctx context.Context, sessionID uuid.UUID, docType string, image []byte) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateDocsUpload)
	if err != nil {
		return nil, err
	}
	if _, ok := documentLabels[docType]; !ok {
		return nil, &validate.Error{Kind: validate.KindBadDocument, Message: "unknown document type " + docType}
	}
	if len(image) == 0 {
		return nil, &validate.Error{Kind: validate.KindBadDocument, Message: "document image is empty"}
	}
	if err := s.client.UploadDocument(ctx, strOr(sess.ProviderSessionID, ""), docType, image); err != nil {
		s.logRemoteFailure(sess, "upload_document", err)
		return nil, err
	}
	sess.SetDocument(docType, time.Now().UTC().Format(time.RFC3339))
	if sess.DocumentsComplete() {
		if err := sess.Advance(); err != nil {
			return nil, err
		}
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		return &Reply{Message: promptAllDocsDone}, nil
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptNextDocument(sess)}, nil
}

// SubmitSerialNumber records the tag serial suffix and fetches the barcodes
// the agent can assign.
func (s *Service) SubmitSerialNumber(ctx context.Context, sessionID uuid.UUID, serial string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateSerialNumber)
	if err != nil {
		return nil, err
	}
	sn, err := validate.SerialSuffix(serial)
	if err != nil {
		return nil, err
	}
	barcodes, err := s.client.AvailableBarcodes(ctx, sess.AgentID)
	if err != nil {
		s.logRemoteFailure(sess, "available_barcodes", err)
		return nil, err
	}
	if len(barcodes) == 0 {
		return nil, &issuance.Error{Reason: issuance.ReasonRejected, Message: "no barcodes available for this agent"}
	}
	sess.SerialNumber = &sn
	sess.BarcodeOptions = barcodes
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptBarcodes(barcodes), Options: barcodes}, nil
}

// SelectBarcode reserves the chosen tag for this session.
func (s *Service) SelectBarcode(ctx context.Context, sessionID uuid.UUID, barcode string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateBarcodeSelection)
	if err != nil {
		return nil, err
	}
	if !contains(sess.BarcodeOptions, barcode) {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "barcode is not in the offered list"}
	}
	if existing, err := s.fastags.GetByBarcode(ctx, barcode); err == nil {
		if existing.SessionID != sess.SessionID {
			return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "barcode is no longer available, pick another"}
		}
	} else if !errors.Is(err, fastag.ErrNotFound) {
		return nil, err
	}
	// Drop any reservation this session already holds so re-selecting
	// after an edit never trips the barcode uniqueness constraint.
	if err := s.fastags.Release(ctx, sess.SessionID); err != nil {
		return nil, err
	}
	if err := s.fastags.Reserve(ctx, &fastag.Fastag{
		Barcode:        barcode,
		SessionID:      sess.SessionID,
		AgentID:        sess.AgentID,
		VehicleNumber:  sess.VehicleNumber,
		SerialNumber:   sess.SerialNumber,
		CustomerMobile: sess.UserMobile,
		PlanID:         sess.PlanID,
		Status:         fastag.StatusIssued,
	}); err != nil {
		return nil, err
	}
	sess.Barcode = &barcode
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		// Give the barcode back, the transition did not happen.
		_ = s.fastags.Release(ctx, sess.SessionID)
		return nil, err
	}
	if sess.FlowKind == session.FlowReplacement {
		return &Reply{Message: replacementSummary(sess), Options: []string{"Yes", "No"}}, nil
	}
	return &Reply{Message: promptMaker, Options: vehicle.Makers()}, nil
}

// SelectMaker records the vehicle manufacturer.
func (s *Service) SelectMaker(ctx context.Context, sessionID uuid.UUID, maker string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateVehicleMaker)
	if err != nil {
		return nil, err
	}
	m, ok := vehicle.ValidMaker(maker)
	if !ok {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "unknown vehicle maker, pick one from the list"}
	}
	sess.VehicleMaker = &m
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptModel, Options: vehicle.Models(m)}, nil
}

// SelectModel records the vehicle model.
func (s *Service) SelectModel(ctx context.Context, sessionID uuid.UUID, model string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateVehicleModel)
	if err != nil {
		return nil, err
	}
	m, ok := vehicle.ValidModel(strOr(sess.VehicleMaker, ""), model)
	if !ok {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "unknown model for this maker, pick one from the list"}
	}
	sess.VehicleModel = &m
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: promptDescriptor, Options: vehicle.Descriptors()}, nil
}

// SelectDescriptor records the descriptor and pushes the assembled vehicle
// record to the provider.
func (s *Service) SelectDescriptor(ctx context.Context, sessionID uuid.UUID, descriptor string) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateVehicleDescriptor)
	if err != nil {
		return nil, err
	}
	d, ok := vehicle.ValidDescriptor(descriptor)
	if !ok {
		return nil, &validate.Error{Kind: validate.KindBadChoice, Message: "unknown descriptor, pick one from the list"}
	}
	if err := s.client.UpdateVehicle(ctx, issuance.VehicleDetails{
		ProviderSessionID: strOr(sess.ProviderSessionID, ""),
		VehicleNumber:     strOr(sess.VehicleNumber, ""),
		AgentID:           sess.AgentID,
		SerialNumber:      strOr(sess.SerialNumber, ""),
		EngineNumber:      strOr(sess.EngineNumber, ""),
		Maker:             strOr(sess.VehicleMaker, ""),
		Model:             strOr(sess.VehicleModel, ""),
		Descriptor:        d,
	}); err != nil {
		s.logRemoteFailure(sess, "update_vehicle", err)
		return nil, err
	}
	sess.VehicleDescriptor = &d
	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &Reply{Message: issuanceSummary(sess), Options: []string{"Yes", "No"}}, nil
}

// Confirm is the terminal checkpoint. A "yes" checks inventory, activates
// with the provider and applies the ledger atomically; a "no" rewinds to
// the configured edit state keeping all collected fields.
func (s *Service) Confirm(ctx context.Context, sessionID uuid.UUID, confirm bool) (*Reply, error) {
	sess, err := s.load(ctx, sessionID, session.StateConfirmation)
	if err != nil {
		return nil, err
	}

	if !confirm {
		edit := s.opts.IssuanceEditState
		prompt := promptVehicleNumber
		if sess.FlowKind == session.FlowReplacement {
			edit = s.opts.ReplacementEditState
			prompt = promptReplaceMobile
		}
		if err := sess.ReturnTo(edit); err != nil {
			return nil, err
		}
		// The reservation is dropped so the barcode goes back to the pool
		// while the agent edits; it is picked again at BARCODE_SELECTION.
		hadReservation := sess.Barcode != nil
		sess.Barcode = nil
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		if hadReservation {
			if err := s.fastags.Release(ctx, sess.SessionID); err != nil {
				s.logger.Warn().Err(err).Str("session_id", sess.SessionID.String()).Msg("barcode release failed on decline")
			}
		}
		return &Reply{Message: "No problem, let's correct the details. " + prompt}, nil
	}

	ag, err := s.agents.GetByID(ctx, sess.AgentID)
	if err != nil {
		return nil, err
	}
	// Surface empty inventory before any money moves provider-side.
	if ag.FastagsLeft <= 0 {
		return nil, agent.ErrInsufficientInventory
	}

	var (
		left       int
		tagNumber  = strOr(sess.Barcode, "")
		successMsg string
	)
	if sess.FlowKind == session.FlowReplacement {
		if err := s.client.ReplaceTag(ctx, issuance.ReplacementRequest{
			CustomerMobile: strOr(sess.UserMobile, ""),
			NewBarcode:     strOr(sess.Barcode, ""),
			PlanID:         strOr(sess.PlanID, ""),
		}); err != nil {
			s.logRemoteFailure(sess, "replace_tag", err)
			return nil, err
		}
		left, err = s.ledger.CompleteReplacement(ctx, ledger.Replacement{
			SessionID:      sess.SessionID,
			AgentID:        sess.AgentID,
			NewBarcode:     strOr(sess.Barcode, ""),
			CustomerMobile: strOr(sess.UserMobile, ""),
			PlanID:         strOr(sess.PlanID, ""),
		})
		if err != nil {
			return nil, err
		}
		successMsg = successReplacement(sess, ag.WalletBalance, left)
	} else {
		act, err := s.client.Activate(ctx, strOr(sess.ProviderSessionID, ""), strOr(sess.Barcode, ""))
		if err != nil {
			s.logRemoteFailure(sess, "activate", err)
			return nil, err
		}
		tagNumber = act.TagNumber
		left, err = s.ledger.CompleteActivation(ctx, ledger.Activation{
			SessionID:      sess.SessionID,
			AgentID:        sess.AgentID,
			Barcode:        strOr(sess.Barcode, ""),
			VehicleNumber:  strOr(sess.VehicleNumber, ""),
			SerialNumber:   strOr(sess.SerialNumber, ""),
			CustomerName:   strOr(sess.FirstName, "") + " " + strOr(sess.LastName, ""),
			CustomerMobile: strOr(sess.UserMobile, ""),
			PlanID:         strOr(sess.PlanID, ""),
		})
		if err != nil {
			return nil, err
		}
		successMsg = successIssuance(tagNumber, sess, ag.WalletBalance, left)
	}

	if err := sess.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		// Ledger and provider already committed; keep the correlation ids
		// for manual reconciliation.
		s.logger.Error().Err(err).
			Str("session_id", sess.SessionID.String()).
			Str("provider_session_id", strOr(sess.ProviderSessionID, "")).
			Str("barcode", strOr(sess.Barcode, "")).
			Msg("activation committed but session completion write failed")
		return nil, err
	}

	return &Reply{
		Message: successMsg,
		Data: map[string]interface{}{
			"tag_number":   tagNumber,
			"fastags_left": left,
		},
	}, nil
}

// Cancel moves a non-terminal session to CANCELLED, releasing any reserved
// barcode.
func (s *Service) Cancel(ctx context.Context, sessionID uuid.UUID) (*Reply, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Cancel(); err != nil {
		return nil, err
	}
	// Persist the terminal state before touching the reservation so a
	// lost version race never leaves a live session without its barcode.
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if sess.Barcode != nil {
		if err := s.fastags.Release(ctx, sess.SessionID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.SessionID.String()).Msg("barcode release failed on cancel")
		}
	}
	return &Reply{Message: promptCancelled}, nil
}

// ExpireIdle cancels sessions idle past their TTL and releases their
// reservations. Intended to run from a background ticker.
func (s *Service) ExpireIdle(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.sessions.ListIdleBefore(ctx, now, 100)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, sess := range stale {
		if err := sess.Cancel(); err != nil {
			continue
		}
		if err := s.save(ctx, sess); err != nil {
			if !errors.Is(err, session.ErrConflict) {
				s.logger.Warn().Err(err).Str("session_id", sess.SessionID.String()).Msg("idle session cancel failed")
			}
			continue
		}
		if sess.Barcode != nil {
			if err := s.fastags.Release(ctx, sess.SessionID); err != nil {
				s.logger.Warn().Err(err).Str("session_id", sess.SessionID.String()).Msg("barcode release failed on expiry")
			}
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info().Int("count", expired).Msg("idle sessions cancelled")
	}
	return expired, nil
}

func (s *Service) logRemoteFailure(sess *session.Session, op string, err error) {
	s.logger.Error().Err(err).
		Str("op", op).
		Str("session_id", sess.SessionID.String()).
		Str("request_id", strOr(sess.RequestID, "")).
		Str("provider_session_id", strOr(sess.ProviderSessionID, "")).
		Msg("issuance provider call failed")
}

func parseExpiry(raw string) (string, error) {
	d, err := time.Parse("02-01-2006", raw)
	if err != nil {
		return "", &validate.Error{Kind: validate.KindBadDateFormat, Message: "expiry date must be DD-MM-YYYY"}
	}
	return d.Format("02-01-2006"), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

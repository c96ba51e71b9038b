// Package agent handles agent login: a 4-digit OTP sent over SMS gates the
// creation of a conversation session.
package agent

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_sender.go -package=mocks . OTPSender

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/shauryapay/fastag-hub/internal/domain/agent"
	"github.com/shauryapay/fastag-hub/internal/domain/session"
	"github.com/shauryapay/fastag-hub/internal/validate"
)

// AgentOTPLength is the login OTP length for agents.
const AgentOTPLength = 4

// OTPSender delivers a one-time password to an agent's mobile.
type OTPSender interface {
	SendOTP(ctx context.Context, mobile, otp string) error
}

// Service verifies agents and opens conversation sessions for them.
type Service struct {
	agents     agent.Repository
	sessions   session.Repository
	sender     OTPSender
	sessionTTL time.Duration
	logger     zerolog.Logger
}

func NewService(agents agent.Repository, sessions session.Repository, sender OTPSender, sessionTTL time.Duration, logger zerolog.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		agents:     agents,
		sessions:   sessions,
		sender:     sender,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("service", "agent").Logger(),
	}
}

// VerifyMobile looks the agent up by mobile number, stores a fresh OTP hash
// and sends the OTP over SMS.
func (s *Service) VerifyMobile(ctx context.Context, mobile string) (*agent.Agent, error) {
	m, err := validate.MobileNumber(mobile)
	if err != nil {
		return nil, err
	}
	a, err := s.agents.GetByMobile(ctx, m)
	if err != nil {
		return nil, err
	}
	otp, err := generateOTP(AgentOTPLength)
	if err != nil {
		return nil, err
	}
	if err := a.SetOTP(otp, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, err
	}
	if err := s.sender.SendOTP(ctx, a.MobileNumber, otp); err != nil {
		s.logger.Error().Err(err).Int64("agent_id", a.ID).Msg("OTP delivery failed")
		return nil, err
	}
	s.logger.Info().Int64("agent_id", a.ID).Msg("agent OTP sent")
	return a, nil
}

// VerifyOTP checks the presented OTP and, when it matches, opens a fresh
// conversation session in STARTED.
func (s *Service) VerifyOTP(ctx context.Context, mobile, otp string) (*agent.Agent, *session.Session, error) {
	m, err := validate.MobileNumber(mobile)
	if err != nil {
		return nil, nil, err
	}
	code, err := validate.OTP(otp, AgentOTPLength)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.agents.GetByMobile(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	if !a.VerifyOTP(code, time.Now().UTC()) {
		return nil, nil, agent.ErrBadOTP
	}
	a.ClearOTP()
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, nil, err
	}
	sess := session.New(a.ID, session.FlowIssuance, s.sessionTTL)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("agent_id", a.ID).Str("session_id", sess.SessionID.String()).Msg("agent verified, session opened")
	return a, sess, nil
}

// Snapshot returns the agent's current wallet balance and tag inventory.
func (s *Service) Snapshot(ctx context.Context, agentID int64) (*agent.Agent, error) {
	return s.agents.GetByID(ctx, agentID)
}

func generateOTP(length int) (string, error) {
	max := big.NewInt(10)
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + n.Int64())
	}
	return string(out), nil
}

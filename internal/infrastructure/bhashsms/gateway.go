// Package bhashsms sends SMS through the bhashsms.com HTTP gateway.
package bhashsms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the gateway credentials.
type Config struct {
	URL      string
	User     string
	Password string
	Sender   string
	Priority string
	SType    string
	Timeout  time.Duration
}

// Gateway delivers one-time passwords over SMS. The gateway answers plain
// text; anything starting with "S." is accepted.
type Gateway struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

func NewGateway(cfg Config, logger zerolog.Logger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Priority == "" {
		cfg.Priority = "ndnd"
	}
	if cfg.SType == "" {
		cfg.SType = "normal"
	}
	return &Gateway{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("service", "bhashsms").Logger(),
	}
}

// SendOTP sends the login OTP to the agent's mobile.
func (g *Gateway) SendOTP(ctx context.Context, mobile, otp string) error {
	text := fmt.Sprintf("Your Shaurya Pay login OTP is %s. It is valid for 10 minutes.", otp)
	return g.send(ctx, mobile, text)
}

func (g *Gateway) send(ctx context.Context, mobile, text string) error {
	params := url.Values{}
	params.Set("user", g.cfg.User)
	params.Set("pass", g.cfg.Password)
	params.Set("sender", g.cfg.Sender)
	params.Set("phone", mobile)
	params.Set("text", text)
	params.Set("priority", g.cfg.Priority)
	params.Set("stype", g.cfg.SType)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	reply := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(reply, "S.") {
		return fmt.Errorf("sms gateway refused message: %q", reply)
	}
	g.logger.Debug().Str("mobile", mobile).Msg("sms accepted")
	return nil
}

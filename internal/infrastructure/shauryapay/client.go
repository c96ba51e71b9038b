// Package shauryapay implements the issuance provider client against the
// Shauryapay gateway API.
package shauryapay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shauryapay/fastag-hub/internal/domain/issuance"
)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL         string
	SubscriptionKey string
	AggrChannel     string
	Timeout         time.Duration
}

// Client talks to the Shauryapay gateway. It satisfies issuance.Client.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

var _ issuance.Client = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("service", "shauryapay").Logger(),
	}
}

// envelope is the gateway's uniform response wrapper. Data is a list for
// some endpoints and an object for others.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) ok() bool {
	s := strings.ToLower(e.Status)
	return s == "true" || s == "success"
}

// dataObject returns the first data object whether the gateway wrapped it
// in a list or not.
func (e *envelope) dataObject() (map[string]json.RawMessage, error) {
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("empty data")
	}
	if raw[0] == '[' {
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errors.New("empty data list")
		}
		return list[0], nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func dataString(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// some fields arrive as bare numbers
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (c *Client) call(ctx context.Context, method, endpoint string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: err.Error()}
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("aggr_channel", c.cfg.AggrChannel)
	req.Header.Set("ocp-apim-subscription-key", c.cfg.SubscriptionKey)

	resp, err := c.http.Do(req)
	if err != nil {
		reason := issuance.ReasonRejected
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			reason = issuance.ReasonTimeout
		}
		return nil, &issuance.Error{Reason: reason, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &issuance.Error{
			Reason:  issuance.ReasonRejected,
			Message: fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: "undecodable gateway response"}
	}
	return &env, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (c *Client) GenerateOTP(ctx context.Context, req issuance.GenerateOTPRequest) (*issuance.OTPChallenge, error) {
	env, err := c.call(ctx, http.MethodPost, "/generate_otp_by_vehicle", map[string]interface{}{
		"vehicle_number": req.VehicleNumber,
		"agent_id":       req.AgentID,
		"mobile_number":  req.MobileNumber,
		"isChassis":      0,
		"engineNo":       req.EngineNumber,
		"chassisNo":      "",
	})
	if err != nil {
		return nil, err
	}
	if !env.ok() {
		return nil, &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	obj, err := env.dataObject()
	if err != nil {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: "OTP challenge missing from response"}
	}
	challenge := &issuance.OTPChallenge{
		RequestID:         dataString(obj, "requestId"),
		ProviderSessionID: dataString(obj, "sessionId"),
	}
	if challenge.RequestID == "" || challenge.ProviderSessionID == "" {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: "OTP challenge missing from response"}
	}
	return challenge, nil
}

func (c *Client) ValidateOTP(ctx context.Context, req issuance.ValidateOTPRequest) (bool, error) {
	env, err := c.call(ctx, http.MethodPost, "/validate_otp_bajaj", map[string]interface{}{
		"requestId": req.RequestID,
		"sessionId": req.ProviderSessionID,
		"agent_id":  req.AgentID,
		"otp":       req.OTP,
	})
	if err != nil {
		return false, err
	}
	return env.ok(), nil
}

func (c *Client) UpdateCustomer(ctx context.Context, details issuance.CustomerDetails) (string, error) {
	env, err := c.call(ctx, http.MethodPost, "/update_customer_details", map[string]interface{}{
		"sessionId":      details.ProviderSessionID,
		"vehicle_number": details.VehicleNumber,
		"name":           details.FirstName,
		"lastName":       details.LastName,
		"dob":            details.DOB,
		"docType":        details.DocType,
		"docNo":          details.DocNumber,
		"expiryDate":     details.ExpiryDate,
		"plan_id":        details.PlanID,
	})
	if err != nil {
		return "", err
	}
	if !env.ok() {
		return "", &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	if obj, err := env.dataObject(); err == nil {
		if ref := dataString(obj, "custId"); ref != "" {
			return ref, nil
		}
	}
	// the gateway keys the wallet off the provider session when it returns
	// no customer id
	return details.ProviderSessionID, nil
}

func (c *Client) UploadDocument(ctx context.Context, providerSessionID, docType string, image []byte) error {
	env, err := c.call(ctx, http.MethodPost, "/uploadDocument", map[string]interface{}{
		"sessionId": providerSessionID,
		"imageType": docType,
		"image":     base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return err
	}
	if !env.ok() {
		return &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	return nil
}

func (c *Client) UpdateVehicle(ctx context.Context, details issuance.VehicleDetails) error {
	env, err := c.call(ctx, http.MethodPost, "/update_vehicle_details", map[string]interface{}{
		"sessionId":           details.ProviderSessionID,
		"vehicle_number":      details.VehicleNumber,
		"agent_id":            details.AgentID,
		"serialNo":            details.SerialNumber,
		"engineNo":            details.EngineNumber,
		"chassisNo":           "",
		"vehicleManuf":        details.Maker,
		"model":               details.Model,
		"vehicleColour":       "",
		"type":                "4W",
		"vehicleType":         "",
		"vehicleDescriptor":   details.Descriptor,
		"stateOfRegistration": "",
	})
	if err != nil {
		return err
	}
	if !env.ok() {
		return &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	return nil
}

func (c *Client) Activate(ctx context.Context, providerSessionID, barcode string) (*issuance.Activation, error) {
	env, err := c.call(ctx, http.MethodPost, "/activate_fastag", map[string]interface{}{
		"sessionId": providerSessionID,
		"barcode":   barcode,
	})
	if err != nil {
		return nil, err
	}
	if !env.ok() {
		return nil, &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	act := &issuance.Activation{TagNumber: barcode, Status: "success"}
	if obj, err := env.dataObject(); err == nil {
		if tag := dataString(obj, "tag_number"); tag != "" {
			act.TagNumber = tag
		}
		if st := dataString(obj, "activation_status"); st != "" {
			act.Status = st
		}
	}
	return act, nil
}

func (c *Client) ReplaceTag(ctx context.Context, req issuance.ReplacementRequest) error {
	env, err := c.call(ctx, http.MethodPost, "/fastag/replace", map[string]interface{}{
		"user_mobile": req.CustomerMobile,
		"new_barcode": req.NewBarcode,
		"plan_id":     req.PlanID,
	})
	if err != nil {
		return err
	}
	if !env.ok() {
		return &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	return nil
}

func (c *Client) AvailableBarcodes(ctx context.Context, agentID int64) ([]string, error) {
	env, err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/agent/get_barcodes/%d", agentID), nil)
	if err != nil {
		return nil, err
	}
	if !env.ok() {
		return nil, &issuance.Error{Reason: issuance.ReasonRejected, Message: env.Message}
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	// the list arrives either as plain strings or as objects with a
	// barcode field
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}
	var objs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, &issuance.Error{Reason: issuance.ReasonMalformed, Message: "undecodable barcode list"}
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		if bc := dataString(o, "barcode"); bc != "" {
			out = append(out, bc)
		}
	}
	return out, nil
}

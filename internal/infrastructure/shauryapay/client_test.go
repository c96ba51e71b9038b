package shauryapay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shauryapay/fastag-hub/internal/domain/issuance"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:         srv.URL,
		SubscriptionKey: "test-key",
		AggrChannel:     "SHSK",
		Timeout:         2 * time.Second,
	}, zerolog.Nop())
}

func TestGenerateOTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate_otp_by_vehicle", r.URL.Path)
		assert.Equal(t, "SHSK", r.Header.Get("aggr_channel"))
		assert.Equal(t, "test-key", r.Header.Get("ocp-apim-subscription-key"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "MH12AB1234", payload["vehicle_number"])
		assert.Equal(t, "12345", payload["engineNo"])

		// the gateway wraps the challenge in a one-element list
		_, _ = w.Write([]byte(`{"status":"true","message":"ok","data":[{"requestId":"req-1","sessionId":"sid-1"}]}`))
	})

	ch, err := c.GenerateOTP(context.Background(), issuance.GenerateOTPRequest{
		VehicleNumber: "MH12AB1234",
		AgentID:       7,
		MobileNumber:  "9123456780",
		EngineNumber:  "12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", ch.RequestID)
	assert.Equal(t, "sid-1", ch.ProviderSessionID)
}

func TestGenerateOTPMissingChallenge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"true","message":"ok","data":[{}]}`))
	})

	_, err := c.GenerateOTP(context.Background(), issuance.GenerateOTPRequest{})
	var ierr *issuance.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, issuance.ReasonMalformed, ierr.Reason)
}

func TestValidateOTP(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/validate_otp_bajaj", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"success","message":"verified"}`))
		})
		ok, err := c.ValidateOTP(context.Background(), issuance.ValidateOTPRequest{OTP: "123456"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"false","message":"wrong otp"}`))
		})
		ok, err := c.ValidateOTP(context.Background(), issuance.ValidateOTPRequest{OTP: "000000"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGatewayErrorStatuses(t *testing.T) {
	t.Run("http error is rejected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		_, err := c.AvailableBarcodes(context.Background(), 7)
		var ierr *issuance.Error
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, issuance.ReasonRejected, ierr.Reason)
	})

	t.Run("bad json is malformed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>not json</html>`))
		})
		_, err := c.AvailableBarcodes(context.Background(), 7)
		var ierr *issuance.Error
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, issuance.ReasonMalformed, ierr.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		c.cfg.Timeout = 50 * time.Millisecond
		c.http.Timeout = 50 * time.Millisecond
		_, err := c.AvailableBarcodes(context.Background(), 7)
		var ierr *issuance.Error
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, issuance.ReasonTimeout, ierr.Reason)
	})
}

func TestAvailableBarcodes(t *testing.T) {
	t.Run("plain strings", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/agent/get_barcodes/7", r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"true","data":["BC-001","BC-002"]}`))
		})
		got, err := c.AvailableBarcodes(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"BC-001", "BC-002"}, got)
	})

	t.Run("object list", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"true","data":[{"barcode":"BC-003"},{"barcode":"BC-004"}]}`))
		})
		got, err := c.AvailableBarcodes(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"BC-003", "BC-004"}, got)
	})
}

func TestActivate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activate_fastag", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"true","message":"ok","data":{"tag_number":"TAG-42","activation_status":"success"}}`))
	})
	act, err := c.Activate(context.Background(), "sid-1", "BC-001")
	require.NoError(t, err)
	assert.Equal(t, "TAG-42", act.TagNumber)
	assert.Equal(t, "success", act.Status)
}

func TestUpdateCustomerFallsBackToSessionRef(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/update_customer_details", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"true","message":"ok"}`))
	})
	ref, err := c.UpdateCustomer(context.Background(), issuance.CustomerDetails{ProviderSessionID: "sid-9"})
	require.NoError(t, err)
	assert.Equal(t, "sid-9", ref)
}

func TestReplaceTagRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"no active tag for user"}`))
	})
	err := c.ReplaceTag(context.Background(), issuance.ReplacementRequest{CustomerMobile: "9123456780"})
	var ierr *issuance.Error
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, issuance.ReasonRejected, ierr.Reason)
	assert.Contains(t, ierr.Message, "no active tag")
}

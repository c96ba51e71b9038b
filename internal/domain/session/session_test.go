package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceFollowsIssuancePath(t *testing.T) {
	s := New(1, FlowIssuance, 24*time.Hour)
	require.Equal(t, StateStarted, s.State)

	want := []State{
		StateVehicleDetails, StateUserMobile, StateUserOTPPending,
		StateUserInfo, StateIDProof, StatePlanSelection, StateWalletCreated,
		StateDocsUpload, StateSerialNumber, StateBarcodeSelection,
		StateVehicleMaker, StateVehicleModel, StateVehicleDescriptor,
		StateConfirmation, StateCompleted,
	}
	for _, st := range want {
		require.NoError(t, s.Advance())
		assert.Equal(t, st, s.State)
	}
	assert.True(t, s.IsTerminal())
	assert.ErrorIs(t, s.Advance(), ErrTerminal)
}

func TestAdvanceFollowsReplacementPath(t *testing.T) {
	s := New(1, FlowReplacement, 24*time.Hour)
	want := []State{
		StateUserMobile, StateUserOTPPending, StatePlanSelection,
		StateBarcodeSelection, StateConfirmation, StateCompleted,
	}
	for _, st := range want {
		require.NoError(t, s.Advance())
		assert.Equal(t, st, s.State)
	}
}

func TestExpectRejectsOutOfOrderSteps(t *testing.T) {
	s := New(1, FlowIssuance, 24*time.Hour)
	require.NoError(t, s.Advance()) // VEHICLE_DETAILS

	err := s.Expect(StateBarcodeSelection)
	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.Equal(t, StateVehicleDetails, s.State)

	require.NoError(t, s.Expect(StateVehicleDetails))
}

func TestTerminalSessionsRejectEverything(t *testing.T) {
	s := New(1, FlowIssuance, 24*time.Hour)
	require.NoError(t, s.Cancel())
	assert.Equal(t, StateCancelled, s.State)

	assert.ErrorIs(t, s.Expect(StateVehicleDetails), ErrTerminal)
	assert.ErrorIs(t, s.Advance(), ErrTerminal)
	assert.ErrorIs(t, s.Cancel(), ErrTerminal)
	assert.ErrorIs(t, s.ReturnTo(StateVehicleDetails), ErrTerminal)
}

func TestReturnToOnlyRewinds(t *testing.T) {
	s := New(1, FlowIssuance, 24*time.Hour)
	s.State = StateConfirmation

	require.NoError(t, s.ReturnTo(StateVehicleDetails))
	assert.Equal(t, StateVehicleDetails, s.State)

	// cannot "return" forward
	assert.ErrorIs(t, s.ReturnTo(StateConfirmation), ErrNotOnPath)

	// replacement path does not contain VEHICLE_DETAILS
	r := New(1, FlowReplacement, 24*time.Hour)
	r.State = StateConfirmation
	assert.ErrorIs(t, r.ReturnTo(StateVehicleDetails), ErrNotOnPath)
	require.NoError(t, r.ReturnTo(StateUserMobile))
}

func TestDocumentsComplete(t *testing.T) {
	s := New(1, FlowIssuance, 24*time.Hour)
	assert.False(t, s.DocumentsComplete())

	// order must not matter
	for _, dt := range []string{"TAG_FIXED", "RC_BACK", "VEHICLE_FRONT", "RC_FRONT"} {
		s.SetDocument(dt, "ref-"+dt)
		assert.False(t, s.DocumentsComplete())
	}
	s.SetDocument("VEHICLE_SIDE", "ref-1")
	assert.True(t, s.DocumentsComplete())

	// re-upload replaces, never duplicates
	s.SetDocument("VEHICLE_SIDE", "ref-2")
	assert.Len(t, s.Documents, 5)
	assert.Equal(t, "ref-2", s.Documents["VEHICLE_SIDE"])
}

func TestIsIdle(t *testing.T) {
	s := New(1, FlowIssuance, time.Hour)
	now := time.Now().UTC()
	assert.False(t, s.IsIdle(now))
	assert.True(t, s.IsIdle(now.Add(2*time.Hour)))

	require.NoError(t, s.Cancel())
	assert.False(t, s.IsIdle(now.Add(2*time.Hour)))
}

func TestParseIDProofType(t *testing.T) {
	for raw, want := range map[string]string{
		"1": IDProofPAN, "2": IDProofPassport,
		"3": IDProofDrivingLicense, "4": IDProofVoterID,
		"PAN": IDProofPAN,
	} {
		got, ok := ParseIDProofType(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	_, ok := ParseIDProofType("5")
	assert.False(t, ok)

	assert.True(t, NeedsIDExpiry(IDProofPassport))
	assert.True(t, NeedsIDExpiry(IDProofDrivingLicense))
	assert.False(t, NeedsIDExpiry(IDProofPAN))
}

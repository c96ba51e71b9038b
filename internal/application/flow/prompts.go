package flow

import (
	"fmt"
	"strings"

	"github.com/shauryapay/fastag-hub/internal/domain/session"
)

// Prompt texts mirror the WhatsApp conversation script.
const (
	promptVehicleNumber = "Let's get your FASTag in just a few steps. 🚗 Please enter the Vehicle Number (e.g., MH12AB1234) and the last 5 digits of the engine number."
	promptUserMobile    = "Now, please send the user's 10-digit Mobile Number."
	promptUserInfo      = "OTP verified! ✅ Please share the user's First Name, Last Name and DOB (DD-MM-YYYY)."
	promptIDProof       = "Choose the ID proof type:\n1. PAN\n2. Passport\n3. Driving License\n4. Voter ID"
	promptPlan          = "Great! Now, select a plan."
	promptWalletCreated = "User wallet created successfully. ✅ Send 'begin' to start uploading the 5 required images."
	promptAllDocsDone   = "All images received! ✅ Enter the last 4 digits of the tag serial number."
	promptMaker         = "Almost there! Who is the vehicle maker?"
	promptModel         = "What is the vehicle model?"
	promptDescriptor    = "What is the vehicle descriptor?"
	promptReplaceMobile = "Let's replace a FASTag! 🔄 Please enter the user's 10-digit mobile number."
	promptCancelled     = "This session has been cancelled. Verify the agent OTP again to start a new one."
)

var documentLabels = map[string]string{
	"RC_FRONT":      "📄 RC Front",
	"RC_BACK":       "📄 RC Back",
	"VEHICLE_FRONT": "📸 Vehicle Front",
	"VEHICLE_SIDE":  "📸 Vehicle Side",
	"TAG_FIXED":     "📸 Tag Fixed (if available)",
}

func promptOTP(mobile string) string {
	return fmt.Sprintf("Sending OTP to %s 🔐 Please type the 6-digit OTP.", mobile)
}

func promptNextDocument(s *session.Session) string {
	for _, dt := range session.RequiredDocuments {
		if _, ok := s.Documents[dt]; !ok {
			return "Please send the next image: " + documentLabels[dt]
		}
	}
	return promptAllDocsDone
}

func promptBarcodes(barcodes []string) string {
	return "Available barcodes:\n" + strings.Join(barcodes, "\n")
}

func strOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func issuanceSummary(s *session.Session) string {
	return fmt.Sprintf(
		"Checkout details, edit if required:\nVehicle No - %s\nPhone No - %s\nEngine No (last 5) - %s\nID Proof - %s %s\nPlan - %s\nVehicle Maker - %s\nVehicle Model - %s\nVehicle Descriptor - %s\nBarcode - %s\nConfirm if the entered details are correct with Yes or No.",
		strOr(s.VehicleNumber, "N/A"),
		strOr(s.UserMobile, "N/A"),
		strOr(s.EngineNumber, "N/A"),
		strOr(s.IDProofType, "N/A"),
		strOr(s.IDProofNumber, "N/A"),
		strOr(s.PlanID, "N/A"),
		strOr(s.VehicleMaker, "N/A"),
		strOr(s.VehicleModel, "N/A"),
		strOr(s.VehicleDescriptor, "N/A"),
		strOr(s.Barcode, "N/A"),
	)
}

func replacementSummary(s *session.Session) string {
	return fmt.Sprintf(
		"Replace FASTag confirmation:\nUser Mobile - %s\nPlan - %s\nNew Barcode - %s\nConfirm the replacement with Yes or No.",
		strOr(s.UserMobile, "N/A"),
		strOr(s.PlanID, "N/A"),
		strOr(s.Barcode, "N/A"),
	)
}

func successIssuance(tagNumber string, s *session.Session, walletBalance int64, fastagsLeft int) string {
	return fmt.Sprintf(
		"🎉 Success! The FASTag has been activated ✅\nCustomer Name: %s %s\nVehicle No: %s\nTag No: %s\n\n💼 Wallet Balance: ₹%d\n🏷️ FASTags Left: %d",
		strOr(s.FirstName, ""), strOr(s.LastName, ""),
		strOr(s.VehicleNumber, "N/A"),
		tagNumber,
		walletBalance/100,
		fastagsLeft,
	)
}

func successReplacement(s *session.Session, walletBalance int64, fastagsLeft int) string {
	return fmt.Sprintf(
		"🎉 Success! The FASTag has been replaced ✅\nUser Mobile: %s\nNew Barcode: %s\n\n💼 Wallet Balance: ₹%d\n🏷️ FASTags Left: %d",
		strOr(s.UserMobile, "N/A"),
		strOr(s.Barcode, "N/A"),
		walletBalance/100,
		fastagsLeft,
	)
}

package domain

const (
	RoleUser  = "USER"
	RoleOwner = "OWNER"
	RoleAdmin = "ADMIN"
)

const (
	ListingStatusActive   = "active"
	ListingStatusInactive = "inactive"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// OccupyingBookingStatuses hold beds for their date range.
var OccupyingBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
)

const (
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"
)

var KYCDocumentTypes = []string{"aadhaar", "pan", "passport", "driving_license", "voter_id"}

const (
	VisitStatusPending   = "pending"
	VisitStatusConfirmed = "confirmed"
	VisitStatusCancelled = "cancelled"
	VisitStatusCompleted = "completed"
)

const (
	ReferralStatusPending  = "pending"
	ReferralStatusCredited = "credited"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderUnisex = "unisex"
)

const (
	FoodVeg    = "veg"
	FoodNonVeg = "non_veg"
	FoodBoth   = "both"
	FoodNone   = "none"
)

const (
	DepositTypeFixed  = "fixed"
	DepositTypeMonths = "months"
)

// Setting keys (system_settings table)
const (
	SettingSecurityDepositType  = "security_deposit_type"
	SettingSecurityDepositValue = "security_deposit_value"
	SettingGSTPercent           = "gst_percent"
	SettingReferralRewardPaise  = "referral_reward_paise"
	SettingInvoicePrefix        = "invoice_prefix"
	SettingSupportEmail         = "support_email"
)

// DefaultSettings are seeded on startup when missing.
var DefaultSettings = map[string]string{
	SettingSecurityDepositType:  DepositTypeMonths,
	SettingSecurityDepositValue: "1",
	SettingGSTPercent:           "18",
	SettingReferralRewardPaise:  "50000",
	SettingInvoicePrefix:        "INV",
	SettingSupportEmail:         "support@pgnest.local",
}

const (
	MinDurationMonths = 1
	MaxDurationMonths = 12
	ListingsPerPage   = 12
)

const (
	NotifBookingCreated   = "BOOKING_CREATED"
	NotifBookingConfirmed = "BOOKING_CONFIRMED"
	NotifBookingStatus    = "BOOKING_STATUS"
	NotifPaymentFailed    = "PAYMENT_FAILED"
	NotifInvoiceReady     = "INVOICE_READY"
	NotifVisitRequested   = "VISIT_REQUESTED"
	NotifVisitStatus      = "VISIT_STATUS"
	NotifKYCReviewed      = "KYC_REVIEWED"
	NotifReferralCredited = "REFERRAL_CREDITED"
)

package enum

// ── Auth levels (carried in JWT claims; no row = logged out) ──

const (
	AuthLevelBusiness = "BUSINESS"
	AuthLevelStaff    = "STAFF"
	AuthLevelAdmin    = "ADMIN"
)

// ── Print types (contract with the external print agent) ──

const (
	PrintTypeFull        = "full"
	PrintTypePartial     = "partial"
	PrintTypeProvisional = "provisional"
	PrintTypeKitchen     = "kitchen"
)

// ── Notification types ──

const (
	NotificationSuccess = "success"
	NotificationError   = "error"
	NotificationInfo    = "info"
)

// ── Payment methods (configurable labels, recorded on settlement history) ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodQRIS     = "QRIS"
	PaymentMethodTransfer = "TRANSFER"
)

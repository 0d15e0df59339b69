package domain

const RoleAdmin = "ADMIN"

const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

const (
	RequestStatusPending   = "pending"
	RequestStatusFulfilled = "fulfilled"
)

// Payment method codes as they appear in callback data and in
// courses.payment_options.
const (
	MethodUPI    = "upi"
	MethodCrypto = "crypto"
	MethodPayPal = "paypal"
	MethodCOD    = "cod"
	MethodGift   = "gift"
)

// PaymentMethods is the display order of payment buttons.
var PaymentMethods = []string{MethodUPI, MethodCrypto, MethodPayPal, MethodCOD, MethodGift}

// IsPaymentMethod reports whether code is a known method.
func IsPaymentMethod(code string) bool {
	for _, m := range PaymentMethods {
		if m == code {
			return true
		}
	}
	return false
}

// Keys of admin-editable bot settings.
const (
	SettingWelcomeMessage    = "WELCOME_MESSAGE"
	SettingAutoDeleteSeconds = "AUTO_DELETE_SECONDS"
	SettingAutoApprove       = "AUTO_APPROVE"
	SettingBotPassword       = "BOT_PASSWORD"
	SettingUPI               = "UPI_ID"
	SettingCrypto            = "CRYPTO_ADDRESS"
	SettingPayPal            = "PAYPAL_ID"
	SettingCODEnabled        = "COD_ENABLED"
	SettingGiftCardEnabled   = "GIFT_CARD_ENABLED"
	SettingAdminContactURL   = "ADMIN_CONTACT_URL"
	SettingDMCAPolicy        = "dmca_policy_text"
)

// SettingKeys lists the keys the settings page always shows.
var SettingKeys = []string{
	SettingWelcomeMessage,
	SettingAutoDeleteSeconds,
	SettingAutoApprove,
	SettingBotPassword,
	SettingUPI,
	SettingCrypto,
	SettingPayPal,
	SettingCODEnabled,
	SettingGiftCardEnabled,
	SettingAdminContactURL,
	SettingDMCAPolicy,
}

// Action names written to action_logs.
const (
	ActionUserJoined             = "user_joined"
	ActionCommandStart           = "command_start"
	ActionCommandCourses         = "command_courses"
	ActionCommandHelp            = "command_help"
	ActionCommandSearch          = "command_search"
	ActionPasswordCorrect        = "password_correct"
	ActionPasswordIncorrect      = "password_incorrect"
	ActionViewCourse             = "view_course"
	ActionGetFreeCourse          = "get_free_course"
	ActionSelectPayment          = "select_payment"
	ActionPaymentMethodSelected  = "payment_method_selected"
	ActionGiftCardSelected       = "gift_card_selected"
	ActionGiftCardSubmitted      = "gift_card_submitted"
	ActionGiftCardCancelled      = "gift_card_cancelled"
	ActionDuplicatePayment       = "duplicate_payment_detected"
	ActionPaymentAutoApproved    = "payment_auto_approved"
	ActionPaymentSubmitted       = "payment_submitted_manual_verification"
	ActionAutoApproveFailed      = "payment_submitted_auto_approve_failed"
	ActionSearchCourses          = "search_courses"
	ActionViewCategoriesMenu     = "view_categories_menu"
	ActionViewCategoryCourses    = "view_category_courses"
	ActionViewPurchases          = "view_purchases"
	ActionViewDMCAPolicy         = "view_dmca_policy"
	ActionRequestCourseButton    = "pressed_request_course_button"
	ActionCourseRequestSubmitted = "submitted_course_request"
	ActionCourseRequestCancelled = "cancelled_course_request"
	ActionSpamDetected           = "spam_detected"
	ActionPaymentApproved        = "payment_approved"
	ActionPaymentRejected        = "payment_rejected"
	ActionUserBanned             = "user_banned"
	ActionUserUnbanned           = "user_unbanned"
)

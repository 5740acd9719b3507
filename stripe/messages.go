package stripe

// User-facing text for payment failures. Handlers attach these to error
// responses so the frontend does not need its own mapping of provider codes.
// Both lookups are total: an unrecognized category falls back to the generic
// branch, never to a panic or an error.

const genericFriendlyMessage = "Something went wrong while processing your payment. Please try again."

var genericSuggestions = []string{
	"Try again in a few moments",
	"Contact support if the problem persists",
}

var friendlyMessages = map[Code]string{
	CodeCardDeclined:           "Your card was declined. Please try a different payment method.",
	CodeInsufficientFunds:      "Your card has insufficient funds. Please use a different card.",
	CodeExpiredCard:            "Your card has expired. Please use a different card.",
	CodeInvalidNumber:          "The card number is invalid. Please check it and try again.",
	CodeInvalidCVC:             "The security code (CVC) is invalid. Please check it and try again.",
	CodeInvalidExpiry:          "The expiration date is invalid. Please check it and try again.",
	CodeProcessingError:        "An error occurred while processing your card. Please try again in a moment.",
	CodeAuthenticationRequired: "Your bank requires additional authentication. Please complete the verification and try again.",
	CodeRateLimited:            "Too many payment attempts. Please wait a moment before trying again.",
	CodeAPIConnection:          "We could not reach the payment service. Please try again shortly.",
	CodeAPIError:               "The payment service had a temporary problem. Please try again shortly.",
	CodeTimeout:                "The payment request timed out. Please try again.",
	CodeInvalidRequest:         "The payment request was invalid. Please review the details and try again.",
	CodeAuthenticationFailed:   "Payments are temporarily unavailable. Please contact support.",
}

var remediationSuggestions = map[Code][]string{
	CodeCardDeclined: {
		"Check that the card details are correct",
		"Contact your bank to authorize the payment",
		"Try a different payment method",
	},
	CodeInsufficientFunds: {
		"Use a different card",
		"Add funds to your account and try again",
	},
	CodeExpiredCard: {
		"Check the expiration date on your card",
		"Use a card that has not expired",
	},
	CodeInvalidNumber: {
		"Re-enter the card number carefully",
		"Make sure you are using a valid card",
	},
	CodeInvalidCVC: {
		"Check the 3 or 4 digit code on your card",
		"Re-enter the security code",
	},
	CodeInvalidExpiry: {
		"Check the expiration month and year",
		"Re-enter the expiration date",
	},
	CodeAuthenticationRequired: {
		"Complete the verification step from your bank",
		"Retry the payment after authenticating",
	},
	CodeRateLimited: {
		"Wait a minute before retrying",
		"Avoid submitting the payment multiple times",
	},
}

// FriendlyMessage maps an error to a fixed human-readable sentence suitable
// for the end user. Unrecognized errors get the generic message.
func FriendlyMessage(err error) string {
	if msg, ok := friendlyMessages[CodeOf(err)]; ok {
		return msg
	}
	return genericFriendlyMessage
}

// Suggestions maps an error to an ordered list of remediation steps.
// Unrecognized errors get the generic two-item list. The returned slice is a
// copy; callers may modify it.
func Suggestions(err error) []string {
	steps, ok := remediationSuggestions[CodeOf(err)]
	if !ok {
		steps = genericSuggestions
	}
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

package stripe

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFriendlyMessageCoversEveryCode(t *testing.T) {
	c := qt.New(t)

	codes := []Code{
		CodeCardDeclined, CodeInsufficientFunds, CodeExpiredCard,
		CodeInvalidNumber, CodeInvalidCVC, CodeInvalidExpiry,
		CodeProcessingError, CodeAuthenticationRequired,
		CodeRateLimited, CodeAPIConnection, CodeAPIError, CodeTimeout,
		CodeInvalidRequest, CodeAuthenticationFailed,
		CodeWebhookValidation, CodeInvalidEvent, CodeUnknown,
	}
	for _, code := range codes {
		msg := FriendlyMessage(NewPaymentError(code, "x", nil))
		c.Assert(msg, qt.Not(qt.Equals), "", qt.Commentf("code %s", code))
	}
}

func TestFriendlyMessageFallsBackToGeneric(t *testing.T) {
	c := qt.New(t)

	c.Assert(FriendlyMessage(errors.New("weird")), qt.Equals, genericFriendlyMessage)
	c.Assert(FriendlyMessage(nil), qt.Equals, genericFriendlyMessage)
}

func TestSuggestionsAreNeverEmpty(t *testing.T) {
	c := qt.New(t)

	c.Assert(Suggestions(NewPaymentError(CodeCardDeclined, "x", nil)), qt.HasLen, 3)
	c.Assert(Suggestions(errors.New("weird")), qt.DeepEquals, genericSuggestions)
	c.Assert(Suggestions(nil), qt.DeepEquals, genericSuggestions)
}

func TestSuggestionsReturnsACopy(t *testing.T) {
	c := qt.New(t)

	first := Suggestions(NewPaymentError(CodeExpiredCard, "x", nil))
	first[0] = "mutated"
	second := Suggestions(NewPaymentError(CodeExpiredCard, "x", nil))
	c.Assert(second[0], qt.Not(qt.Equals), "mutated")
}

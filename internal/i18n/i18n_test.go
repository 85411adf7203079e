package i18n

import (
	"reflect"
	"testing"
)

func TestTranslate(t *testing.T) {
	en := MustNew("en")
	if got := en.T("pin_prompt", nil); got != "Enter your PIN: " {
		t.Fatalf("unexpected english prompt %q", got)
	}
	if got := en.T("invalid_pin", map[string]interface{}{"Remaining": 2}); got != "Incorrect PIN. Attempts remaining: 2" {
		t.Fatalf("unexpected template output %q", got)
	}

	de := MustNew("de")
	if got := de.T("balance", map[string]interface{}{"Balance": "1000.00"}); got != "Ihr Kontostand beträgt: 1000.00" {
		t.Fatalf("unexpected german output %q", got)
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	c := MustNew("fr")
	if got := c.T("goodbye", nil); got != "Goodbye." {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if c.Lang() != "fr" {
		t.Fatalf("expected requested lang to be kept, got %q", c.Lang())
	}
}

func TestUnknownMessageReturnsID(t *testing.T) {
	if got := MustNew("en").T("no_such_message", nil); got != "no_such_message" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	if got := MustNew("en").Languages(); !reflect.DeepEqual(got, []string{"de", "en"}) {
		t.Fatalf("unexpected languages %v", got)
	}

	ids := []string{
		"welcome", "card_prompt", "pin_prompt", "unknown_card", "directory_unavailable",
		"pin_accepted", "invalid_pin", "card_locked", "menu", "option_prompt",
		"invalid_option", "withdraw_prompt", "deposit_prompt", "invalid_amount",
		"insufficient_funds", "withdraw_success", "deposit_success", "balance",
		"not_authenticated", "card_returned", "exiting", "goodbye",
	}
	data := map[string]interface{}{"Remaining": 1, "Balance": "0.00"}
	en, de := MustNew("en"), MustNew("de")
	for _, id := range ids {
		if en.T(id, data) == id {
			t.Fatalf("english catalog missing %s", id)
		}
		if id != "option_prompt" && de.T(id, data) == en.T(id, data) {
			t.Fatalf("german catalog missing %s", id)
		}
	}
}

package session

import (
	"errors"
	"testing"
)

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"+14155550123", "+4915123456789", "+81312345678"}
	for _, n := range valid {
		if err := ValidatePhoneNumber(n); err != nil {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want nil", n, err)
		}
	}

	invalid := []string{"", "14155550123", "+0123456789", "+1", "call-me", "+1415555o123"}
	for _, n := range invalid {
		err := ValidatePhoneNumber(n)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want ValidationError", n, err)
		}
	}
}

func TestValidateLanguage(t *testing.T) {
	supported := []string{"en", "es", "de", "fr", "ja"}

	if err := ValidateLanguage("web_language", "en", supported); err != nil {
		t.Errorf("valid code rejected: %v", err)
	}
	if err := ValidateLanguage("web_language", " EN ", supported); err != nil {
		t.Errorf("case and whitespace should be normalised: %v", err)
	}

	err := ValidateLanguage("web_language", "enn", supported)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Suggestion != "en" {
		t.Errorf("suggestion = %q, want %q", verr.Suggestion, "en")
	}

	err = ValidateLanguage("web_language", "zzz", supported)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Suggestion != "" {
		t.Errorf("suggestion for %q = %q, want none", "zzz", verr.Suggestion)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{Field: "web_language", Reason: `unsupported language "enn"`, Suggestion: "en"}
	want := `session: invalid web_language: unsupported language "enn" (did you mean "en"?)`
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

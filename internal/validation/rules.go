// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/wallets/internal/errors"
)

var (
	// bpnRegex matches business partner numbers: legal entity, site or address.
	bpnRegex = regexp.MustCompile(`^BPN[LSA][A-Z0-9]{12}$`)

	// didFragmentRegex matches the fragment part of a DID URL.
	didFragmentRegex = regexp.MustCompile(`^[A-Za-z0-9._~-]{1,64}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// BPN validates a business partner number.
var BPN = validation.NewStringRuleWithError(
	func(s string) bool {
		return bpnRegex.MatchString(s)
	},
	validation.NewError("validation_bpn_format", "must be a valid business partner number"),
)

// LegalEntityBPN validates a legal entity business partner number (BPNL).
// Wallets are only created for legal entities.
var LegalEntityBPN = validation.NewStringRuleWithError(
	func(s string) bool {
		return bpnRegex.MatchString(s) && strings.HasPrefix(s, "BPNL")
	},
	validation.NewError("validation_bpnl_format", "must be a valid legal entity business partner number"),
)

// DIDFragment validates a DID URL fragment.
var DIDFragment = validation.NewStringRuleWithError(
	func(s string) bool {
		return didFragmentRegex.MatchString(s)
	},
	validation.NewError("validation_did_fragment", "must be a valid DID fragment"),
)

// AbsoluteURI validates that a string is an absolute URI, as required for
// JSON-LD context entries.
var AbsoluteURI = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
	},
	validation.NewError("validation_absolute_uri", "must be an absolute URI"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

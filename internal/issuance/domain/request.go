package domain

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/wallets/internal/validation"
)

// MembershipRequest asks for a membership credential.
type MembershipRequest struct {
	HolderWalletID string
}

// Validate checks the holder id.
func (r MembershipRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.HolderWalletID, validation.Required, customValidation.LegalEntityBPN),
	)
	return customValidation.WrapValidationError(err)
}

// DismantlerRequest asks for a dismantler credential.
type DismantlerRequest struct {
	HolderWalletID       string
	ActivityType         string
	AllowedVehicleBrands []string
}

// Validate checks the holder id and the brand list. An empty activity type
// defaults to vehicle dismantling.
func (r DismantlerRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.HolderWalletID, validation.Required, customValidation.LegalEntityBPN),
		validation.Field(&r.ActivityType, customValidation.NoWhitespace),
		validation.Field(&r.AllowedVehicleBrands,
			validation.Required,
			validation.Each(validation.Required, customValidation.NotBlank, customValidation.NoWhitespace),
		),
	)
	return customValidation.WrapValidationError(err)
}

// FrameworkRequest asks for a use case framework credential.
type FrameworkRequest struct {
	HolderWalletID   string
	Type             string
	ContractTemplate string
	ContractVersion  string
}

// Validate checks the request fields. Whether Type is a configured framework
// type is checked by the issuance use case.
func (r FrameworkRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.HolderWalletID, validation.Required, customValidation.LegalEntityBPN),
		validation.Field(&r.Type, validation.Required, customValidation.NoWhitespace),
		validation.Field(&r.ContractTemplate, validation.Required, customValidation.AbsoluteURI),
		validation.Field(&r.ContractVersion,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 32),
		),
	)
	return customValidation.WrapValidationError(err)
}

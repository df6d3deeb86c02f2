package domain

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/wallets/internal/validation"
)

// CreateWalletInput holds the caller-supplied fields of a new wallet.
type CreateWalletInput struct {
	ID   string
	Name string
}

// Validate checks the wallet id is a legal entity BPN and the name is set.
func (i CreateWalletInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.ID, validation.Required, customValidation.LegalEntityBPN),
		validation.Field(&i.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
	)
	return customValidation.WrapValidationError(err)
}

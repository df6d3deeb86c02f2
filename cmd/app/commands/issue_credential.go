package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	issuanceUseCase "github.com/allisson/wallets/internal/issuance/usecase"
)

// Credential kinds accepted by the issue-credential command.
const (
	KindBusinessPartner = "bpn"
	KindMembership      = "membership"
	KindDismantler      = "dismantler"
	KindFramework       = "framework"
)

// IssueCredentialInput carries the flags of the issue-credential command.
// Only the fields of the selected kind are read.
type IssueCredentialInput struct {
	Kind                 string
	HolderWalletID       string
	ActivityType         string
	AllowedVehicleBrands []string
	FrameworkType        string
	ContractTemplate     string
	ContractVersion      string
}

// RunIssueCredential issues a credential of the requested kind to a hosted
// wallet and prints the signed document.
//
// Requirements: Database must be migrated and the authority wallet must exist.
func RunIssueCredential(
	ctx context.Context,
	issuance issuanceUseCase.IssuanceUseCase,
	logger *slog.Logger,
	input IssueCredentialInput,
	writer io.Writer,
) error {
	logger.Info("issuing credential",
		slog.String("kind", input.Kind),
		slog.String("holder_wallet_id", input.HolderWalletID),
	)

	var (
		vc  *credentialDomain.VerifiableCredential
		err error
	)
	switch input.Kind {
	case KindBusinessPartner:
		vc, err = issuance.IssueBusinessPartner(ctx, input.HolderWalletID)
	case KindMembership:
		vc, err = issuance.IssueMembership(ctx, issuanceDomain.MembershipRequest{
			HolderWalletID: input.HolderWalletID,
		})
	case KindDismantler:
		vc, err = issuance.IssueDismantler(ctx, issuanceDomain.DismantlerRequest{
			HolderWalletID:       input.HolderWalletID,
			ActivityType:         input.ActivityType,
			AllowedVehicleBrands: input.AllowedVehicleBrands,
		})
	case KindFramework:
		vc, err = issuance.IssueFramework(ctx, issuanceDomain.FrameworkRequest{
			HolderWalletID:   input.HolderWalletID,
			Type:             input.FrameworkType,
			ContractTemplate: input.ContractTemplate,
			ContractVersion:  input.ContractVersion,
		})
	default:
		return fmt.Errorf(
			"invalid credential kind: %s (valid options: bpn, membership, dismantler, framework)",
			input.Kind,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to issue credential: %w", err)
	}

	if err := writeJSON(writer, vc); err != nil {
		return err
	}

	logger.Info("credential issued successfully",
		slog.String("credential_id", vc.ID),
		slog.String("holder_wallet_id", input.HolderWalletID),
	)
	return nil
}

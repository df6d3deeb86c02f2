package usecase

import (
	"context"
	"time"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
	"github.com/allisson/wallets/internal/errors"
	issuanceDomain "github.com/allisson/wallets/internal/issuance/domain"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
)

// coreTypes are issued by dedicated operations, never as framework credentials.
var coreTypes = []string{
	credentialDomain.TypeBpnCredential,
	credentialDomain.TypeMembershipCredential,
	credentialDomain.TypeDismantlerCredential,
	credentialDomain.TypeSummaryCredential,
}

type issuanceUseCase struct {
	cfg            *config.Config
	txManager      database.TxManager
	issuer         CredentialIssuer
	credentialRepo CredentialRepository
	wallets        WalletStore
}

// NewIssuanceUseCase creates an IssuanceUseCase.
func NewIssuanceUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	issuer CredentialIssuer,
	credentialRepo CredentialRepository,
	wallets WalletStore,
) IssuanceUseCase {
	return &issuanceUseCase{
		cfg:            cfg,
		txManager:      txManager,
		issuer:         issuer,
		credentialRepo: credentialRepo,
		wallets:        wallets,
	}
}

func (u *issuanceUseCase) IssueBusinessPartner(
	ctx context.Context,
	holderWalletID string,
) (*credentialDomain.VerifiableCredential, error) {
	subject := issuanceDomain.BusinessPartnerSubject{
		Type: credentialDomain.TypeBpnCredential,
		ID:   u.issuer.HolderDID(holderWalletID),
		BPN:  holderWalletID,
	}
	return u.issue(ctx, holderWalletID, credentialDomain.TypeBpnCredential, subject)
}

func (u *issuanceUseCase) IssueMembership(
	ctx context.Context,
	req issuanceDomain.MembershipRequest,
) (*credentialDomain.VerifiableCredential, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	subject := issuanceDomain.MembershipSubject{
		Type:             credentialDomain.TypeMembershipCredential,
		ID:               u.issuer.HolderDID(req.HolderWalletID),
		HolderIdentifier: req.HolderWalletID,
		MemberOf:         issuanceDomain.MemberOfCatenaX,
		Status:           issuanceDomain.StatusActive,
		StartTime:        time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	return u.issue(ctx, req.HolderWalletID, credentialDomain.TypeMembershipCredential, subject)
}

func (u *issuanceUseCase) IssueDismantler(
	ctx context.Context,
	req issuanceDomain.DismantlerRequest,
) (*credentialDomain.VerifiableCredential, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	activityType := req.ActivityType
	if activityType == "" {
		activityType = issuanceDomain.ActivityVehicleDismantle
	}

	subject := issuanceDomain.DismantlerSubject{
		Type:                 credentialDomain.TypeDismantlerCredential,
		ID:                   u.issuer.HolderDID(req.HolderWalletID),
		HolderIdentifier:     req.HolderWalletID,
		ActivityType:         activityType,
		AllowedVehicleBrands: append([]string{}, req.AllowedVehicleBrands...),
	}
	return u.issue(ctx, req.HolderWalletID, credentialDomain.TypeDismantlerCredential, subject)
}

func (u *issuanceUseCase) IssueFramework(
	ctx context.Context,
	req issuanceDomain.FrameworkRequest,
) (*credentialDomain.VerifiableCredential, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !u.cfg.IsFrameworkType(req.Type) || isCoreType(req.Type) {
		return nil, errors.Wrap(issuanceDomain.ErrUnknownFrameworkType, req.Type)
	}

	subject := issuanceDomain.FrameworkSubject{
		Type:             req.Type,
		ID:               u.issuer.HolderDID(req.HolderWalletID),
		HolderIdentifier: req.HolderWalletID,
		UseCaseType:      req.Type,
		ContractTemplate: req.ContractTemplate,
		ContractVersion:  req.ContractVersion,
	}
	return u.issue(ctx, req.HolderWalletID, req.Type, subject)
}

// issue signs a credential of credentialType for the holder, stores it and
// records the holding. A holder keeps at most one credential per type.
func (u *issuanceUseCase) issue(
	ctx context.Context,
	holderWalletID string,
	credentialType string,
	subject any,
) (*credentialDomain.VerifiableCredential, error) {
	claims, err := issuanceDomain.EncodeSubject(subject)
	if err != nil {
		return nil, err
	}

	var vc *credentialDomain.VerifiableCredential
	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		exists, err := u.wallets.Exists(txCtx, holderWalletID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Wrap(walletDomain.ErrWalletNotFound, holderWalletID)
		}

		held, err := u.credentialRepo.Count(txCtx, credentialDomain.CredentialQuery{
			HolderWalletID: holderWalletID,
			Types:          []string{credentialType},
		})
		if err != nil {
			return err
		}
		if held > 0 {
			return errors.Wrap(credentialDomain.ErrCredentialAlreadyIssued, credentialType)
		}

		issued, err := u.issuer.Issue(txCtx, issuanceService.Request{Type: credentialType, Subject: claims})
		if err != nil {
			return err
		}
		if err := u.credentialRepo.Create(txCtx, issued); err != nil {
			return err
		}
		if err := u.wallets.StoreCredential(txCtx, holderWalletID, issued.ID); err != nil {
			return err
		}

		vc = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func isCoreType(credentialType string) bool {
	for _, t := range coreTypes {
		if t == credentialType {
			return true
		}
	}
	return false
}

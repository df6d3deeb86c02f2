package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/wallets/internal/config"
	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	credentialRepository "github.com/allisson/wallets/internal/credential/repository"
	credentialUseCase "github.com/allisson/wallets/internal/credential/usecase"
	cryptoDomain "github.com/allisson/wallets/internal/crypto/domain"
	"github.com/allisson/wallets/internal/database"
	"github.com/allisson/wallets/internal/did"
	issuanceService "github.com/allisson/wallets/internal/issuance/service"
	keyvaultService "github.com/allisson/wallets/internal/keyvault/service"
	"github.com/allisson/wallets/internal/proof"
	walletDomain "github.com/allisson/wallets/internal/wallet/domain"
	walletRepository "github.com/allisson/wallets/internal/wallet/repository"
)

const (
	authorityWalletID  = "BPNL000000000000"
	credentialsContext = "https://www.w3.org/2018/credentials/v1"
	suiteContext       = "https://w3id.org/security/suites/ed25519-2020/v1"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, *credentialDomain.VerifiableCredential) error {
	return credentialDomain.ErrInvalidProof
}

type fixture struct {
	cfg        *config.Config
	walletRepo *walletRepository.MemoryWalletRepository
	vault      *keyvaultService.Vault
	issuer     *issuanceService.Issuer
	verifier   credentialUseCase.CredentialUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		AuthorityWalletID:       authorityWalletID,
		DIDHost:                 "localhost",
		CredentialExpiryHorizon: 365 * 24 * time.Hour,
		CredentialContexts:      []string{credentialsContext},
		CredentialTypeContexts:  map[string][]string{},
		ProofSuiteContext:       suiteContext,
	}

	txManager := database.NewMemoryTxManager(0)
	walletRepo := walletRepository.NewMemoryWalletRepository(txManager)
	credentialRepo := credentialRepository.NewMemoryCredentialRepository(txManager, walletRepo)
	vault := keyvaultService.NewVault(keyvaultService.NewMemoryBackend(cryptoDomain.AESGCM))

	contexts := proof.NewContextCache(nil)
	require.NoError(t, contexts.PreloadVocab(credentialsContext, suiteContext))
	documents := did.NewDocumentService(cfg.DIDHost, walletRepo, vault)
	engine := proof.NewEd25519Signature2020(contexts, did.NewKeyResolver(did.NewLocalResolver(documents)))

	return &fixture{
		cfg:        cfg,
		walletRepo: walletRepo,
		vault:      vault,
		issuer:     issuanceService.NewIssuer(cfg, walletRepo, vault, engine),
		verifier:   credentialUseCase.NewCredentialUseCase(credentialRepo, engine),
	}
}

func (f *fixture) createAuthority(t *testing.T, inVault bool) {
	t.Helper()
	ctx := context.Background()

	wallet := &walletDomain.Wallet{ID: authorityWalletID, Name: "Authority", CreatedAt: time.Now().UTC()}
	if inVault {
		key, err := keyvaultService.NewKeyFactory().Generate("key-1")
		require.NoError(t, err)
		stored, err := f.vault.Store(ctx, authorityWalletID, key)
		require.NoError(t, err)
		wallet.Keys = append(wallet.Keys, stored)
	} else {
		wallet.Keys = append(wallet.Keys, walletDomain.StoredKey{
			KeyID: uuid.New(), DidFragment: "key-1", CreatedAt: time.Now().UTC(),
		})
	}
	require.NoError(t, f.walletRepo.Create(ctx, wallet))
}

func (f *fixture) checker(db Pinger) *Checker {
	return NewChecker(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		DatabaseCheck(db),
		SigningKeyCheck(f.cfg, f.walletRepo, f.vault),
		SelfIssueCheck(f.cfg, f.issuer, f.verifier),
	)
}

func TestChecker_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("Ready", func(t *testing.T) {
		f := newFixture(t)
		f.createAuthority(t, true)

		report := f.checker(stubPinger{}).Check(ctx)
		assert.True(t, report.Ready())
		assert.Equal(t, map[string]string{
			"database":              StatusOK,
			"authority_signing_key": StatusOK,
			"self_issuance":         StatusOK,
		}, report.Components)
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		f := newFixture(t)
		f.createAuthority(t, true)

		report := f.checker(stubPinger{err: errors.New("connection refused")}).Check(ctx)
		assert.False(t, report.Ready())
		assert.Equal(t, StatusNotReady, report.Status)
		assert.Equal(t, StatusError, report.Components["database"])
		assert.Equal(t, StatusOK, report.Components["self_issuance"])
	})

	t.Run("AuthorityMissing", func(t *testing.T) {
		f := newFixture(t)

		report := f.checker(stubPinger{}).Check(ctx)
		assert.False(t, report.Ready())
		assert.Equal(t, StatusOK, report.Components["database"])
		assert.Equal(t, StatusError, report.Components["authority_signing_key"])
		assert.Equal(t, StatusError, report.Components["self_issuance"])
	})

	t.Run("SigningKeyNotInVault", func(t *testing.T) {
		f := newFixture(t)
		f.createAuthority(t, false)

		report := f.checker(stubPinger{}).Check(ctx)
		assert.Equal(t, StatusError, report.Components["authority_signing_key"])
		assert.Equal(t, StatusError, report.Components["self_issuance"])
	})
}

func TestSigningKeyCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("AuthorityMissingIsConfigurationFailure", func(t *testing.T) {
		f := newFixture(t)
		err := SigningKeyCheck(f.cfg, f.walletRepo, f.vault).Run(ctx)
		assert.Equal(t, "configuration_failure", category(err))
	})

	t.Run("NotInVaultIsCustodyFailure", func(t *testing.T) {
		f := newFixture(t)
		f.createAuthority(t, false)
		err := SigningKeyCheck(f.cfg, f.walletRepo, f.vault).Run(ctx)
		assert.Equal(t, "custody_failure", category(err))
	})

	t.Run("NoKeysIsConfigurationFailure", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.walletRepo.Create(ctx, &walletDomain.Wallet{ID: authorityWalletID, Name: "Authority"}))
		err := SigningKeyCheck(f.cfg, f.walletRepo, f.vault).Run(ctx)
		assert.ErrorIs(t, err, walletDomain.ErrNoKeyFound)
	})
}

func TestSelfIssueCheck_RejectedIsCustodyFailure(t *testing.T) {
	f := newFixture(t)
	f.createAuthority(t, true)

	err := SelfIssueCheck(f.cfg, f.issuer, rejectingVerifier{}).Run(context.Background())
	assert.ErrorIs(t, err, credentialDomain.ErrInvalidProof)
	assert.Equal(t, "custody_failure", category(err))
}

func TestDatabaseCheck_NotConfigured(t *testing.T) {
	assert.Error(t, DatabaseCheck(nil).Run(context.Background()))
}

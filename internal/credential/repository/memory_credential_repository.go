package repository

import (
	"context"
	"sort"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
)

// HoldingIndex answers which credentials a wallet holds.
type HoldingIndex interface {
	HeldCredentialIDs(ctx context.Context, walletID string) map[string]struct{}
}

// MemoryCredentialRepository keeps credential documents in process memory.
type MemoryCredentialRepository struct {
	txManager   *database.MemoryTxManager
	holdings    HoldingIndex
	credentials map[string][]byte
}

// NewMemoryCredentialRepository creates a MemoryCredentialRepository
// registered with txManager. Holder filters are answered by holdings.
func NewMemoryCredentialRepository(
	txManager *database.MemoryTxManager,
	holdings HoldingIndex,
) *MemoryCredentialRepository {
	r := &MemoryCredentialRepository{
		txManager:   txManager,
		holdings:    holdings,
		credentials: make(map[string][]byte),
	}
	txManager.Register(r)
	return r
}

// Snapshot implements database.Snapshotter.
func (r *MemoryCredentialRepository) Snapshot() func() {
	credentials := make(map[string][]byte, len(r.credentials))
	for id, document := range r.credentials {
		credentials[id] = document
	}
	return func() {
		r.credentials = credentials
	}
}

// Create stores the credential document.
func (r *MemoryCredentialRepository) Create(
	ctx context.Context,
	vc *credentialDomain.VerifiableCredential,
) error {
	document, err := encodeDocument(vc)
	if err != nil {
		return err
	}

	defer r.txManager.Enter(ctx)()

	if _, ok := r.credentials[vc.ID]; ok {
		return credentialDomain.ErrCredentialAlreadyExists
	}
	r.credentials[vc.ID] = document
	return nil
}

// Get returns the credential document by id, held or not.
func (r *MemoryCredentialRepository) Get(
	ctx context.Context,
	credentialID string,
) (*credentialDomain.VerifiableCredential, error) {
	defer r.txManager.Enter(ctx)()

	document, ok := r.credentials[credentialID]
	if !ok {
		return nil, credentialDomain.ErrCredentialNotFound
	}
	return decodeDocument(document)
}

// List returns the credentials matching q, newest first.
func (r *MemoryCredentialRepository) List(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) ([]*credentialDomain.VerifiableCredential, error) {
	matched, err := r.filter(ctx, q)
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IssuanceDate.Equal(matched[j].IssuanceDate) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].IssuanceDate.After(matched[j].IssuanceDate)
	})

	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], nil
}

// Count returns the number of credentials matching q.
func (r *MemoryCredentialRepository) Count(ctx context.Context, q credentialDomain.CredentialQuery) (int64, error) {
	matched, err := r.filter(ctx, q)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Len returns the number of stored documents.
func (r *MemoryCredentialRepository) Len(ctx context.Context) int {
	defer r.txManager.Enter(ctx)()
	return len(r.credentials)
}

func (r *MemoryCredentialRepository) filter(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) ([]*credentialDomain.VerifiableCredential, error) {
	// Held ids are read before entering: the holding index takes the same lock.
	var held map[string]struct{}
	if q.HolderWalletID != "" {
		held = r.holdings.HeldCredentialIDs(ctx, q.HolderWalletID)
	}

	defer r.txManager.Enter(ctx)()

	var matched []*credentialDomain.VerifiableCredential
	for id, document := range r.credentials {
		if held != nil {
			if _, ok := held[id]; !ok {
				continue
			}
		}
		vc, err := decodeDocument(document)
		if err != nil {
			return nil, err
		}
		if q.Issuer != "" && vc.Issuer != q.Issuer {
			continue
		}
		if len(q.Types) > 0 && !hasAnyType(vc, q.Types) {
			continue
		}
		matched = append(matched, vc)
	}
	return matched, nil
}

func hasAnyType(vc *credentialDomain.VerifiableCredential, types []string) bool {
	for _, t := range types {
		if vc.HasType(t) {
			return true
		}
	}
	return false
}

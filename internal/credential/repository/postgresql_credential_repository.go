package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
)

// PostgreSQLCredentialRepository implements credential persistence for PostgreSQL.
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a PostgreSQLCredentialRepository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// Create stores the credential document and its type index.
func (p *PostgreSQLCredentialRepository) Create(
	ctx context.Context,
	vc *credentialDomain.VerifiableCredential,
) error {
	querier := database.GetTx(ctx, p.db)

	document, err := encodeDocument(vc)
	if err != nil {
		return err
	}

	query := `INSERT INTO credentials (id, issuer, issuance_date, expiration_date, document)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err = querier.ExecContext(ctx, query, vc.ID, vc.Issuer, vc.IssuanceDate, vc.ExpirationDate, document)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return credentialDomain.ErrCredentialAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}

	for _, t := range distinctTypes(vc) {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO credential_types (credential_id, type) VALUES ($1, $2)`,
			vc.ID,
			t,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create credential type")
		}
	}
	return nil
}

// Get returns the credential document by id, held or not.
func (p *PostgreSQLCredentialRepository) Get(
	ctx context.Context,
	credentialID string,
) (*credentialDomain.VerifiableCredential, error) {
	querier := database.GetTx(ctx, p.db)

	var document []byte
	err := querier.QueryRowContext(ctx, `SELECT document FROM credentials WHERE id = $1`, credentialID).
		Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credentialDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}
	return decodeDocument(document)
}

const postgresCredentialFilter = `
	WHERE ($1 = '' OR EXISTS (
		SELECT 1 FROM wallet_credentials wc WHERE wc.credential_id = c.id AND wc.wallet_id = $1))
	AND ($2 = '' OR c.issuer = $2)
	AND (cardinality($3::text[]) = 0 OR EXISTS (
		SELECT 1 FROM credential_types ct WHERE ct.credential_id = c.id AND ct.type = ANY($3)))`

// List returns the credentials matching q, newest first.
func (p *PostgreSQLCredentialRepository) List(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) ([]*credentialDomain.VerifiableCredential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT c.document FROM credentials c` + postgresCredentialFilter + `
			  ORDER BY c.issuance_date DESC, c.id ASC
			  LIMIT $4 OFFSET $5`

	rows, err := querier.QueryContext(
		ctx,
		query,
		q.HolderWalletID,
		q.Issuer,
		pq.Array(q.Types),
		limitOrAll(q.Limit),
		q.Offset,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer func() {
		_ = rows.Close()
	}()

	var credentials []*credentialDomain.VerifiableCredential
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential")
		}
		vc, err := decodeDocument(document)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate credentials")
	}
	return credentials, nil
}

// Count returns the number of credentials matching q.
func (p *PostgreSQLCredentialRepository) Count(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM credentials c`+postgresCredentialFilter,
		q.HolderWalletID,
		q.Issuer,
		pq.Array(q.Types),
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count credentials")
	}
	return count, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/database"
	apperrors "github.com/allisson/wallets/internal/errors"
)

// MySQLCredentialRepository implements credential persistence for MySQL.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a MySQLCredentialRepository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}

// Create stores the credential document and its type index.
func (m *MySQLCredentialRepository) Create(
	ctx context.Context,
	vc *credentialDomain.VerifiableCredential,
) error {
	querier := database.GetTx(ctx, m.db)

	document, err := encodeDocument(vc)
	if err != nil {
		return err
	}

	query := `INSERT INTO credentials (id, issuer, issuance_date, expiration_date, document)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, vc.ID, vc.Issuer, vc.IssuanceDate, vc.ExpirationDate, document)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return credentialDomain.ErrCredentialAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credential")
	}

	for _, t := range distinctTypes(vc) {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO credential_types (credential_id, type) VALUES (?, ?)`,
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
func (m *MySQLCredentialRepository) Get(
	ctx context.Context,
	credentialID string,
) (*credentialDomain.VerifiableCredential, error) {
	querier := database.GetTx(ctx, m.db)

	var document []byte
	err := querier.QueryRowContext(ctx, `SELECT document FROM credentials WHERE id = ?`, credentialID).
		Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, credentialDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}
	return decodeDocument(document)
}

// List returns the credentials matching q, newest first.
func (m *MySQLCredentialRepository) List(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) ([]*credentialDomain.VerifiableCredential, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := mysqlCredentialFilter(q)
	query := `SELECT c.document FROM credentials c` + where + `
			  ORDER BY c.issuance_date DESC, c.id ASC
			  LIMIT ? OFFSET ?`
	args = append(args, limitOrAll(q.Limit), q.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
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
func (m *MySQLCredentialRepository) Count(
	ctx context.Context,
	q credentialDomain.CredentialQuery,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := mysqlCredentialFilter(q)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials c`+where, args...).
		Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count credentials")
	}
	return count, nil
}

// mysqlCredentialFilter builds the WHERE clause for q. MySQL has no array
// parameters, so the type filter expands to one placeholder per type.
func mysqlCredentialFilter(q credentialDomain.CredentialQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q.HolderWalletID != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM wallet_credentials wc
			WHERE wc.credential_id = c.id AND wc.wallet_id = ?)`)
		args = append(args, q.HolderWalletID)
	}
	if q.Issuer != "" {
		clauses = append(clauses, `c.issuer = ?`)
		args = append(args, q.Issuer)
	}
	if len(q.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Types)), ", ")
		clauses = append(clauses, `EXISTS (SELECT 1 FROM credential_types ct
			WHERE ct.credential_id = c.id AND ct.type IN (`+placeholders+`))`)
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

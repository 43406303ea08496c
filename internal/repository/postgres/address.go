package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/repository"
	"github.com/anchorhub/backoffice/pkg/database"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

const addressColumns = `id, user_id, address_line, city, state, postal_code, country,
	phone_number, address_type, is_primary, created_at, updated_at`

const onePrimaryIndex = "addresses_one_primary_idx"

// AddressRepository is the PostgreSQL implementation of repository.AddressRepository.
type AddressRepository struct {
	pool database.DBTX
}

func NewAddressRepository(pool database.DBTX) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// addressQueries runs address statements against either the pool or a transaction.
type addressQueries struct {
	db database.DBTX
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.AddressLine,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.PhoneNumber,
		&a.AddressType,
		&a.IsPrimary,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAddresses(rows pgx.Rows) ([]domain.Address, error) {
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return out, nil
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) (_ []domain.Address, err error) {
	q := `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1
		ORDER BY is_primary DESC, created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListAddresses", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return collectAddresses(rows)
}

func (r *AddressRepository) GetByID(ctx context.Context, userID, id string) (_ *domain.Address, err error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetAddress", q)
	defer func() { end(err) }()

	a, err := scanAddress(r.pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

// WithinUserLock serializes all address writes of one user on a
// transaction-scoped advisory lock. Locking rows would not cover the user's
// first address, where there is no row to lock yet.
func (r *AddressRepository) WithinUserLock(ctx context.Context, userID string, fn func(tx repository.AddressTx) error) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "addresses:"+userID); err != nil {
			return fmt.Errorf("lock addresses of user %s: %w", userID, err)
		}
		return fn(&addressQueries{db: tx})
	})
}

func (q *addressQueries) List(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return collectAddresses(rows)
}

func (q *addressQueries) Insert(ctx context.Context, a *domain.Address) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.UserID, a.AddressLine, a.City, a.State, a.PostalCode, a.Country,
		a.PhoneNumber, a.AddressType, a.IsPrimary, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapAddressWriteError("insert address", err)
	}
	return nil
}

func (q *addressQueries) Update(ctx context.Context, a *domain.Address) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE addresses SET
			address_line = $3, city = $4, state = $5, postal_code = $6, country = $7,
			phone_number = $8, address_type = $9, is_primary = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.AddressLine, a.City, a.State, a.PostalCode, a.Country,
		a.PhoneNumber, a.AddressType, a.IsPrimary, a.UpdatedAt,
	)
	if err != nil {
		return mapAddressWriteError("update address", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}
	return nil
}

func (q *addressQueries) Delete(ctx context.Context, userID, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}
	return nil
}

func (q *addressQueries) ClearPrimary(ctx context.Context, userID string) error {
	_, err := q.db.Exec(ctx,
		`UPDATE addresses SET is_primary = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_primary`, userID)
	if err != nil {
		return fmt.Errorf("clear primary address: %w", err)
	}
	return nil
}

func (q *addressQueries) MarkPrimary(ctx context.Context, userID, id string) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE addresses SET is_primary = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapAddressWriteError("mark primary address", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}
	return nil
}

func (q *addressQueries) CountPrimaries(ctx context.Context, userID string) (int, int, error) {
	var primaries, total int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_primary), COUNT(*)
		FROM addresses WHERE user_id = $1`, userID,
	).Scan(&primaries, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("count primary addresses: %w", err)
	}
	return primaries, total, nil
}

func mapAddressWriteError(op string, err error) error {
	if database.IsUniqueViolation(err, onePrimaryIndex) {
		return apperrors.InvariantViolation("user would have more than one primary address")
	}
	return fmt.Errorf("%s: %w", op, err)
}

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

const variantColumns = `id, product_id, sku, price, stock_quantity, image_url, is_default, status, created_at, updated_at`

const (
	skuUniqueConstraint = "variants_sku_key"
	oneDefaultIndex     = "variants_one_default_idx"
)

// VariantRepository is the PostgreSQL implementation of repository.VariantRepository.
type VariantRepository struct {
	pool database.DBTX
}

func NewVariantRepository(pool database.DBTX) *VariantRepository {
	return &VariantRepository{pool: pool}
}

type variantQueries struct {
	db database.DBTX
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	err := row.Scan(
		&v.ID,
		&v.ProductID,
		&v.SKU,
		&v.Price,
		&v.StockQuantity,
		&v.ImageURL,
		&v.IsDefault,
		&v.Status,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVariants(rows pgx.Rows) ([]domain.Variant, error) {
	defer rows.Close()

	var out []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return out, nil
}

func (r *VariantRepository) GetByID(ctx context.Context, id string) (_ *domain.Variant, err error) {
	q := `SELECT ` + variantColumns + ` FROM variants WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetVariant", q)
	defer func() { end(err) }()

	v, err := scanVariant(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("variant", id)
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

func (r *VariantRepository) ListByProduct(ctx context.Context, productID string, f domain.VariantFilter) (_ []domain.Variant, err error) {
	q := `SELECT ` + variantColumns + ` FROM variants
		WHERE product_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::boolean IS NULL OR (stock_quantity > 0) = $3)
		  AND ($4::boolean IS NULL OR is_default = $4)
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListVariants", q)
	defer func() { end(err) }()

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, q, productID, status, f.InStock, f.IsDefault)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	return collectVariants(rows)
}

func (r *VariantRepository) ListByProducts(ctx context.Context, productIDs []string) (_ map[string][]domain.Variant, err error) {
	out := make(map[string][]domain.Variant, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	q := `SELECT ` + variantColumns + ` FROM variants WHERE product_id = ANY($1::uuid[]) ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListVariantsForProducts", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list variants for products: %w", err)
	}
	variants, err := collectVariants(rows)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	return out, nil
}

func (r *VariantRepository) WithinTx(ctx context.Context, fn func(tx repository.VariantTx) error) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&variantQueries{db: tx})
	})
}

func (q *variantQueries) ProductExists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 FOR SHARE)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

func (q *variantQueries) Lock(ctx context.Context, id string) (*domain.Variant, error) {
	v, err := scanVariant(q.db.QueryRow(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("variant", id)
		}
		return nil, fmt.Errorf("lock variant: %w", err)
	}
	return v, nil
}

func (q *variantQueries) LockByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE product_id = $1 ORDER BY created_at, id FOR UPDATE`, productID)
	if err != nil {
		return nil, fmt.Errorf("lock product variants: %w", err)
	}
	return collectVariants(rows)
}

func (q *variantQueries) Insert(ctx context.Context, v *domain.Variant) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO variants (`+variantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.ProductID, v.SKU, v.Price, v.StockQuantity, v.ImageURL, v.IsDefault, v.Status, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return mapVariantWriteError("insert variant", v, err)
	}
	return nil
}

func (q *variantQueries) Update(ctx context.Context, v *domain.Variant) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE variants SET
			sku = $2, price = $3, stock_quantity = $4, image_url = $5,
			is_default = $6, status = $7, updated_at = $8
		WHERE id = $1`,
		v.ID, v.SKU, v.Price, v.StockQuantity, v.ImageURL, v.IsDefault, v.Status, v.UpdatedAt,
	)
	if err != nil {
		return mapVariantWriteError("update variant", v, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("variant", v.ID)
	}
	return nil
}

func (q *variantQueries) Delete(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("variant", id)
	}
	return nil
}

func (q *variantQueries) ClearDefault(ctx context.Context, productID, exceptID string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE variants SET is_default = FALSE, updated_at = NOW()
		WHERE product_id = $1 AND id::text <> $2 AND is_default`, productID, exceptID)
	if err != nil {
		return fmt.Errorf("clear default variant: %w", err)
	}
	return nil
}

func mapVariantWriteError(op string, v *domain.Variant, err error) error {
	switch {
	case database.IsUniqueViolation(err, skuUniqueConstraint):
		return apperrors.InvalidInputf("sku %q is already in use", v.SKU)
	case database.IsUniqueViolation(err, oneDefaultIndex):
		return apperrors.InvariantViolation("product would have more than one default variant")
	}
	return fmt.Errorf("%s: %w", op, err)
}

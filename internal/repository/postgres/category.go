package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/pkg/database"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

// CategoryRepository is the PostgreSQL implementation of repository.CategoryRepository.
type CategoryRepository struct {
	pool database.DBTX
}

func NewCategoryRepository(pool database.DBTX) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categorySelect = `
	SELECT c.id, c.name, c.status,
	       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id),
	       c.created_at, c.updated_at
	FROM product_categories c`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Status, &c.ProductsCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	q := `INSERT INTO product_categories (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateCategory", q)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, q, c.ID, c.Name, c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (_ *domain.Category, err error) {
	q := categorySelect + ` WHERE c.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategory", q)
	defer func() { end(err) }()

	c, err := scanCategory(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context, status *domain.RecordStatus) (_ []domain.Category, err error) {
	q := categorySelect + ` WHERE ($1::text IS NULL OR c.status = $1) ORDER BY c.name, c.id`

	ctx, end := database.TraceQuery(ctx, "ListCategories", q)
	defer func() { end(err) }()

	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}

	rows, err := r.pool.Query(ctx, q, filter)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	q := `UPDATE product_categories SET name = $2, status = $3, updated_at = $4 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "UpdateCategory", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, c.ID, c.Name, c.Status, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) (err error) {
	q := `DELETE FROM product_categories WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteCategory", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}

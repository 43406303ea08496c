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

// AttributeRepository is the PostgreSQL implementation of repository.AttributeRepository.
type AttributeRepository struct {
	pool database.DBTX
}

func NewAttributeRepository(pool database.DBTX) *AttributeRepository {
	return &AttributeRepository{pool: pool}
}

// --- attributes ---

func (r *AttributeRepository) CreateAttribute(ctx context.Context, a *domain.Attribute) (err error) {
	q := `INSERT INTO attributes (id, name, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateAttribute", q)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, q, a.ID, a.Name, a.Status, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("insert attribute: %w", err)
	}
	return nil
}

func (r *AttributeRepository) GetAttribute(ctx context.Context, id string) (_ *domain.Attribute, err error) {
	q := `SELECT id, name, status, created_at, updated_at FROM attributes WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetAttribute", q)
	defer func() { end(err) }()

	var a domain.Attribute
	err = r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("attribute", id)
		}
		return nil, fmt.Errorf("get attribute: %w", err)
	}
	return &a, nil
}

func (r *AttributeRepository) ListAttributes(ctx context.Context) (_ []domain.Attribute, err error) {
	q := `
		SELECT a.id, a.name, a.status, a.created_at, a.updated_at,
		       (SELECT COUNT(*) FROM attribute_values v WHERE v.attribute_id = a.id),
		       (SELECT COUNT(DISTINCT pa.product_id) FROM product_attributes pa WHERE pa.attribute_id = a.id),
		       (SELECT COUNT(DISTINCT va.variant_id) FROM variant_attributes va WHERE va.attribute_id = a.id)
		FROM attributes a
		ORDER BY a.name, a.id`

	ctx, end := database.TraceQuery(ctx, "ListAttributes", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()

	attrs := []domain.Attribute{}
	for rows.Next() {
		var (
			a     domain.Attribute
			usage domain.AttributeUsage
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt,
			&usage.Values, &usage.Products, &usage.Variants); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		a.Usage = &usage
		attrs = append(attrs, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}
	return attrs, nil
}

func (r *AttributeRepository) UpdateAttribute(ctx context.Context, a *domain.Attribute) (err error) {
	q := `UPDATE attributes SET name = $2, status = $3, updated_at = $4 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "UpdateAttribute", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, a.ID, a.Name, a.Status, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("attribute", a.ID)
	}
	return nil
}

func (r *AttributeRepository) DeleteAttribute(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteAttribute", `DELETE FROM attributes WHERE id = $1`, "attribute", id)
}

// --- values ---

func (r *AttributeRepository) CreateValue(ctx context.Context, v *domain.AttributeValue) (err error) {
	q := `INSERT INTO attribute_values (id, attribute_id, value, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "CreateAttributeValue", q)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, q, v.ID, v.AttributeID, v.Value, v.Status, v.CreatedAt, v.UpdatedAt); err != nil {
		return fmt.Errorf("insert attribute value: %w", err)
	}
	return nil
}

func (r *AttributeRepository) GetValue(ctx context.Context, id string) (_ *domain.AttributeValue, err error) {
	q := `SELECT id, attribute_id, value, status, created_at, updated_at FROM attribute_values WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetAttributeValue", q)
	defer func() { end(err) }()

	var v domain.AttributeValue
	err = r.pool.QueryRow(ctx, q, id).Scan(&v.ID, &v.AttributeID, &v.Value, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("attribute value", id)
		}
		return nil, fmt.Errorf("get attribute value: %w", err)
	}
	return &v, nil
}

func (r *AttributeRepository) ListValues(ctx context.Context, attributeID string) (_ []domain.AttributeValue, err error) {
	q := `SELECT id, attribute_id, value, status, created_at, updated_at
		FROM attribute_values WHERE attribute_id = $1 ORDER BY value, id`

	ctx, end := database.TraceQuery(ctx, "ListAttributeValues", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q, attributeID)
	if err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	defer rows.Close()

	values := []domain.AttributeValue{}
	for rows.Next() {
		var v domain.AttributeValue
		if err := rows.Scan(&v.ID, &v.AttributeID, &v.Value, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		values = append(values, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute values: %w", err)
	}
	return values, nil
}

func (r *AttributeRepository) UpdateValue(ctx context.Context, v *domain.AttributeValue) (err error) {
	q := `UPDATE attribute_values SET value = $2, status = $3, updated_at = $4 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "UpdateAttributeValue", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, v.ID, v.Value, v.Status, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update attribute value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("attribute value", v.ID)
	}
	return nil
}

func (r *AttributeRepository) DeleteValue(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteAttributeValue", `DELETE FROM attribute_values WHERE id = $1`, "attribute value", id)
}

// --- links ---

const linkSelect = `
	SELECT l.id, l.%[1]s, l.attribute_id, l.attribute_value_id, a.name, v.value
	FROM %[2]s l
	JOIN attributes a ON a.id = l.attribute_id
	JOIN attribute_values v ON v.id = l.attribute_value_id
	WHERE l.%[1]s = $1
	ORDER BY a.name, v.value`

func (r *AttributeRepository) AttachToProduct(ctx context.Context, pa *domain.ProductAttribute) (err error) {
	q := `INSERT INTO product_attributes (id, product_id, attribute_id, attribute_value_id) VALUES ($1, $2, $3, $4)`

	ctx, end := database.TraceQuery(ctx, "AttachProductAttribute", q)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, q, pa.ID, pa.ProductID, pa.AttributeID, pa.AttributeValueID); err != nil {
		if database.IsUniqueViolation(err, "product_attributes_unique") {
			return apperrors.AlreadyExists("product attribute", "attribute_value_id", pa.AttributeValueID)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.InvalidInput("attribute value does not belong to the attribute")
		}
		return fmt.Errorf("attach product attribute: %w", err)
	}
	return nil
}

func (r *AttributeRepository) DetachFromProduct(ctx context.Context, productID, linkID string) (err error) {
	q := `DELETE FROM product_attributes WHERE id = $1 AND product_id = $2`

	ctx, end := database.TraceQuery(ctx, "DetachProductAttribute", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, linkID, productID)
	if err != nil {
		return fmt.Errorf("detach product attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product attribute", linkID)
	}
	return nil
}

func (r *AttributeRepository) ListProductAttributes(ctx context.Context, productID string) (_ []domain.ProductAttribute, err error) {
	q := fmt.Sprintf(linkSelect, "product_id", "product_attributes")

	ctx, end := database.TraceQuery(ctx, "ListProductAttributes", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("list product attributes: %w", err)
	}
	defer rows.Close()

	links := []domain.ProductAttribute{}
	for rows.Next() {
		var l domain.ProductAttribute
		if err := rows.Scan(&l.ID, &l.ProductID, &l.AttributeID, &l.AttributeValueID, &l.AttributeName, &l.Value); err != nil {
			return nil, fmt.Errorf("scan product attribute: %w", err)
		}
		links = append(links, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product attributes: %w", err)
	}
	return links, nil
}

func (r *AttributeRepository) AttachToVariant(ctx context.Context, va *domain.VariantAttribute) (err error) {
	q := `INSERT INTO variant_attributes (id, variant_id, attribute_id, attribute_value_id) VALUES ($1, $2, $3, $4)`

	ctx, end := database.TraceQuery(ctx, "AttachVariantAttribute", q)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, q, va.ID, va.VariantID, va.AttributeID, va.AttributeValueID); err != nil {
		if database.IsUniqueViolation(err, "variant_attributes_unique") {
			return apperrors.AlreadyExists("variant attribute", "attribute_value_id", va.AttributeValueID)
		}
		if database.IsForeignKeyViolation(err) {
			return apperrors.InvalidInput("attribute value does not belong to the attribute")
		}
		return fmt.Errorf("attach variant attribute: %w", err)
	}
	return nil
}

func (r *AttributeRepository) DetachFromVariant(ctx context.Context, variantID, linkID string) (err error) {
	q := `DELETE FROM variant_attributes WHERE id = $1 AND variant_id = $2`

	ctx, end := database.TraceQuery(ctx, "DetachVariantAttribute", q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, linkID, variantID)
	if err != nil {
		return fmt.Errorf("detach variant attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("variant attribute", linkID)
	}
	return nil
}

func (r *AttributeRepository) ListVariantAttributes(ctx context.Context, variantID string) (_ []domain.VariantAttribute, err error) {
	q := fmt.Sprintf(linkSelect, "variant_id", "variant_attributes")

	ctx, end := database.TraceQuery(ctx, "ListVariantAttributes", q)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, q, variantID)
	if err != nil {
		return nil, fmt.Errorf("list variant attributes: %w", err)
	}
	defer rows.Close()

	links := []domain.VariantAttribute{}
	for rows.Next() {
		var l domain.VariantAttribute
		if err := rows.Scan(&l.ID, &l.VariantID, &l.AttributeID, &l.AttributeValueID, &l.AttributeName, &l.Value); err != nil {
			return nil, fmt.Errorf("scan variant attribute: %w", err)
		}
		links = append(links, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant attributes: %w", err)
	}
	return links, nil
}

func (r *AttributeRepository) deleteByID(ctx context.Context, op, q, resource, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, op, q)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", resource, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(resource, id)
	}
	return nil
}

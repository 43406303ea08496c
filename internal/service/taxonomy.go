package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/anchorhub/backoffice/internal/domain"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

func recordStatusOrDefault(s domain.RecordStatus) (domain.RecordStatus, error) {
	if s == "" {
		return domain.RecordStatusActive, nil
	}
	if !s.Valid() {
		return "", apperrors.InvalidInputf("invalid status %q", s)
	}
	return s, nil
}

func requiredName(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperrors.InvalidInputf("%s is required", field)
	}
	return v, nil
}

// --- Categories ---

type CategoryInput struct {
	Name   string
	Status domain.RecordStatus
}

type UpdateCategoryInput struct {
	Name   *string
	Status *domain.RecordStatus
}

func (s *CatalogService) CreateCategory(ctx context.Context, input *CategoryInput) (*domain.Category, error) {
	name, err := requiredName("name", input.Name)
	if err != nil {
		return nil, err
	}
	status, err := recordStatusOrDefault(input.Status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &domain.Category{ID: uuid.New().String(), Name: name, Status: status, CreatedAt: now, UpdatedAt: now}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "category created", slog.String("category_id", c.ID))
	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories, or only those with the given status.
func (s *CatalogService) ListCategories(ctx context.Context, status *domain.RecordStatus) ([]domain.Category, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.InvalidInputf("invalid status %q", *status)
	}
	cs, err := s.categories.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cs, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input *UpdateCategoryInput) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category for update: %w", err)
	}
	if input.Name != nil {
		if c.Name, err = requiredName("name", *input.Name); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.InvalidInputf("invalid status %q", *input.Status)
		}
		c.Status = *input.Status
	}

	c.UpdatedAt = s.now()
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category. Its products keep existing without one.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}

// --- Attributes ---

type AttributeInput struct {
	Name   string
	Status domain.RecordStatus
}

type UpdateAttributeInput struct {
	Name   *string
	Status *domain.RecordStatus
}

type AttributeValueInput struct {
	Value  string
	Status domain.RecordStatus
}

type UpdateAttributeValueInput struct {
	Value  *string
	Status *domain.RecordStatus
}

func (s *CatalogService) CreateAttribute(ctx context.Context, input *AttributeInput) (*domain.Attribute, error) {
	name, err := requiredName("name", input.Name)
	if err != nil {
		return nil, err
	}
	status, err := recordStatusOrDefault(input.Status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &domain.Attribute{ID: uuid.New().String(), Name: name, Status: status, CreatedAt: now, UpdatedAt: now}
	if err := s.attributes.CreateAttribute(ctx, a); err != nil {
		return nil, fmt.Errorf("create attribute: %w", err)
	}
	s.logger.InfoContext(ctx, "attribute created", slog.String("attribute_id", a.ID))
	return a, nil
}

// GetAttribute returns an attribute with its values.
func (s *CatalogService) GetAttribute(ctx context.Context, id string) (*domain.Attribute, error) {
	a, err := s.attributes.GetAttribute(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get attribute: %w", err)
	}
	if a.Values, err = s.attributes.ListValues(ctx, id); err != nil {
		return nil, fmt.Errorf("get attribute values: %w", err)
	}
	return a, nil
}

// ListAttributes returns every attribute with its usage counts.
func (s *CatalogService) ListAttributes(ctx context.Context) ([]domain.Attribute, error) {
	as, err := s.attributes.ListAttributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return as, nil
}

func (s *CatalogService) UpdateAttribute(ctx context.Context, id string, input *UpdateAttributeInput) (*domain.Attribute, error) {
	a, err := s.attributes.GetAttribute(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get attribute for update: %w", err)
	}
	if input.Name != nil {
		if a.Name, err = requiredName("name", *input.Name); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.InvalidInputf("invalid status %q", *input.Status)
		}
		a.Status = *input.Status
	}

	a.UpdatedAt = s.now()
	if err := s.attributes.UpdateAttribute(ctx, a); err != nil {
		return nil, fmt.Errorf("update attribute: %w", err)
	}
	return a, nil
}

// DeleteAttribute removes an attribute with its values and every link to them.
func (s *CatalogService) DeleteAttribute(ctx context.Context, id string) error {
	if err := s.attributes.DeleteAttribute(ctx, id); err != nil {
		return fmt.Errorf("delete attribute: %w", err)
	}
	s.logger.InfoContext(ctx, "attribute deleted", slog.String("attribute_id", id))
	return nil
}

func (s *CatalogService) CreateAttributeValue(ctx context.Context, attributeID string, input *AttributeValueInput) (*domain.AttributeValue, error) {
	value, err := requiredName("value", input.Value)
	if err != nil {
		return nil, err
	}
	status, err := recordStatusOrDefault(input.Status)
	if err != nil {
		return nil, err
	}
	if _, err := s.attributes.GetAttribute(ctx, attributeID); err != nil {
		return nil, fmt.Errorf("create attribute value: %w", err)
	}

	now := s.now()
	v := &domain.AttributeValue{
		ID:          uuid.New().String(),
		AttributeID: attributeID,
		Value:       value,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.attributes.CreateValue(ctx, v); err != nil {
		return nil, fmt.Errorf("create attribute value: %w", err)
	}
	return v, nil
}

func (s *CatalogService) ListAttributeValues(ctx context.Context, attributeID string) ([]domain.AttributeValue, error) {
	if _, err := s.attributes.GetAttribute(ctx, attributeID); err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	vs, err := s.attributes.ListValues(ctx, attributeID)
	if err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	return vs, nil
}

func (s *CatalogService) UpdateAttributeValue(ctx context.Context, id string, input *UpdateAttributeValueInput) (*domain.AttributeValue, error) {
	v, err := s.attributes.GetValue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get attribute value for update: %w", err)
	}
	if input.Value != nil {
		if v.Value, err = requiredName("value", *input.Value); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.InvalidInputf("invalid status %q", *input.Status)
		}
		v.Status = *input.Status
	}

	v.UpdatedAt = s.now()
	if err := s.attributes.UpdateValue(ctx, v); err != nil {
		return nil, fmt.Errorf("update attribute value: %w", err)
	}
	return v, nil
}

func (s *CatalogService) DeleteAttributeValue(ctx context.Context, id string) error {
	if err := s.attributes.DeleteValue(ctx, id); err != nil {
		return fmt.Errorf("delete attribute value: %w", err)
	}
	return nil
}

// --- Attribute links ---

// checkValueOfAttribute fails with InvalidInput unless valueID is a value of attributeID.
func (s *CatalogService) checkValueOfAttribute(ctx context.Context, attributeID, valueID string) error {
	v, err := s.attributes.GetValue(ctx, valueID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInputf("attribute value %s does not exist", valueID)
		}
		return err
	}
	if v.AttributeID != attributeID {
		return apperrors.InvalidInputf("attribute value %s does not belong to attribute %s", valueID, attributeID)
	}
	return nil
}

func (s *CatalogService) AttachProductAttribute(ctx context.Context, productID, attributeID, valueID string) (*domain.ProductAttribute, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("attach product attribute: %w", err)
	}
	if err := s.checkValueOfAttribute(ctx, attributeID, valueID); err != nil {
		return nil, fmt.Errorf("attach product attribute: %w", err)
	}

	link := &domain.ProductAttribute{
		ID:               uuid.New().String(),
		ProductID:        productID,
		AttributeID:      attributeID,
		AttributeValueID: valueID,
	}
	if err := s.attributes.AttachToProduct(ctx, link); err != nil {
		return nil, fmt.Errorf("attach product attribute: %w", err)
	}
	return link, nil
}

func (s *CatalogService) ListProductAttributes(ctx context.Context, productID string) ([]domain.ProductAttribute, error) {
	links, err := s.attributes.ListProductAttributes(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product attributes: %w", err)
	}
	return links, nil
}

func (s *CatalogService) DetachProductAttribute(ctx context.Context, productID, linkID string) error {
	if err := s.attributes.DetachFromProduct(ctx, productID, linkID); err != nil {
		return fmt.Errorf("detach product attribute: %w", err)
	}
	return nil
}

func (s *CatalogService) AttachVariantAttribute(ctx context.Context, variantID, attributeID, valueID string) (*domain.VariantAttribute, error) {
	if _, err := s.variants.GetByID(ctx, variantID); err != nil {
		return nil, fmt.Errorf("attach variant attribute: %w", err)
	}
	if err := s.checkValueOfAttribute(ctx, attributeID, valueID); err != nil {
		return nil, fmt.Errorf("attach variant attribute: %w", err)
	}

	link := &domain.VariantAttribute{
		ID:               uuid.New().String(),
		VariantID:        variantID,
		AttributeID:      attributeID,
		AttributeValueID: valueID,
	}
	if err := s.attributes.AttachToVariant(ctx, link); err != nil {
		return nil, fmt.Errorf("attach variant attribute: %w", err)
	}
	return link, nil
}

func (s *CatalogService) ListVariantAttributes(ctx context.Context, variantID string) ([]domain.VariantAttribute, error) {
	links, err := s.attributes.ListVariantAttributes(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("list variant attributes: %w", err)
	}
	return links, nil
}

func (s *CatalogService) DetachVariantAttribute(ctx context.Context, variantID, linkID string) error {
	if err := s.attributes.DetachFromVariant(ctx, variantID, linkID); err != nil {
		return fmt.Errorf("detach variant attribute: %w", err)
	}
	return nil
}

package domain

import "time"

// Attribute is a named property such as "Size" or "Color".
type Attribute struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	Values []AttributeValue `json:"values,omitempty"`
	Usage  *AttributeUsage  `json:"usage,omitempty"`
}

// AttributeUsage counts where an attribute is referenced.
type AttributeUsage struct {
	Values   int `json:"values"`
	Products int `json:"products"`
	Variants int `json:"variants"`
}

// AttributeValue is one allowed value of an attribute.
type AttributeValue struct {
	ID          string       `json:"id"`
	AttributeID string       `json:"attribute_id"`
	Value       string       `json:"value"`
	Status      RecordStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ProductAttribute links a product to an attribute value.
type ProductAttribute struct {
	ID               string `json:"id"`
	ProductID        string `json:"product_id"`
	AttributeID      string `json:"attribute_id"`
	AttributeValueID string `json:"attribute_value_id"`
	AttributeName    string `json:"attribute_name,omitempty"`
	Value            string `json:"value,omitempty"`
}

// VariantAttribute links a variant to an attribute value.
type VariantAttribute struct {
	ID               string `json:"id"`
	VariantID        string `json:"variant_id"`
	AttributeID      string `json:"attribute_id"`
	AttributeValueID string `json:"attribute_value_id"`
	AttributeName    string `json:"attribute_name,omitempty"`
	Value            string `json:"value,omitempty"`
}

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Variations is the option chosen per variation name on a cart line,
// e.g. {"Size": "M", "Color": "Red"}.
type Variations map[string]string

// Key renders a canonical, order-independent identity for the selection.
// It is the JSON object with sorted names, so separators inside names or
// values cannot make two selections collide. An empty selection is "".
func (v Variations) Key() string {
	if len(v) == 0 {
		return ""
	}
	raw, err := json.Marshal(map[string]string(v))
	if err != nil {
		return ""
	}
	return string(raw)
}

func (v Variations) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	return jsonValue(map[string]string(v))
}

func (v *Variations) Scan(value interface{}) error {
	result := make(Variations)
	if value != nil {
		if err := scanJSON(value, &result, "variations"); err != nil {
			return err
		}
	}
	*v = result
	return nil
}

// VariationOptions is the set of allowed options per variation name
// defined on a product, e.g. {"Size": ["S", "M", "L"]}.
type VariationOptions map[string][]string

// Validate checks that every selected option is defined for the product.
func (o VariationOptions) Validate(selected Variations) error {
	if len(selected) == 0 {
		return nil
	}
	if len(o) == 0 {
		return fmt.Errorf("product has no variations")
	}
	for name, choice := range selected {
		options, ok := o[name]
		if !ok {
			return fmt.Errorf("unknown variation %q", name)
		}
		found := false
		for _, opt := range options {
			if opt == choice {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("option %q not available for %s", choice, name)
		}
	}
	return nil
}

func (o VariationOptions) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	return jsonValue(map[string][]string(o))
}

func (o *VariationOptions) Scan(value interface{}) error {
	result := make(VariationOptions)
	if value != nil {
		if err := scanJSON(value, &result, "variation options"); err != nil {
			return err
		}
	}
	*o = result
	return nil
}

// GormDBDataType picks jsonb on Postgres and text elsewhere.
func (Variations) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

// GormDBDataType picks jsonb on Postgres and text elsewhere.
func (VariationOptions) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

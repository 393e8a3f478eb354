package types

import (
	"database/sql/driver"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Specifications is an ordered key/value list shown on product pages.
type Specifications []Specification

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue([]Specification(s))
}

func (s *Specifications) Scan(value interface{}) error {
	var result []Specification
	if value != nil {
		if err := scanJSON(value, &result, "specifications"); err != nil {
			return err
		}
	}
	*s = result
	return nil
}

// GormDBDataType picks jsonb on Postgres and text elsewhere.
func (Specifications) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

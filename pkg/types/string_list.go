package types

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList stores a text array on Postgres and its array literal as text
// on SQLite; both sides use the lib/pq encoding.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	return pq.StringArray(l).Value()
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

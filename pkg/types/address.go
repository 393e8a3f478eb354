package types

import (
	"database/sql/driver"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	DefaultZipCode = "0000"
	DefaultCountry = "Ghana"
)

// Address is a delivery or store address persisted as JSON.
type Address struct {
	Street    string  `json:"street"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zip_code"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Normalized trims every field and fills zip code and country defaults.
func (a Address) Normalized() Address {
	out := Address{
		Street:    strings.TrimSpace(a.Street),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		ZipCode:   strings.TrimSpace(a.ZipCode),
		Country:   strings.TrimSpace(a.Country),
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
	}
	if out.ZipCode == "" {
		out.ZipCode = DefaultZipCode
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// MissingFields lists the required fields that are blank.
func (a Address) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	return missing
}

// HasCoordinates reports whether both coordinates were supplied.
func (a Address) HasCoordinates() bool {
	return a.Latitude != 0 && a.Longitude != 0
}

// OneLine renders the address for tracking and pickup labels.
func (a Address) OneLine() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (a Address) Value() (driver.Value, error) {
	return jsonValue(a)
}

func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	return scanJSON(value, a, "address")
}

// GormDBDataType picks jsonb on Postgres and text elsewhere.
func (Address) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

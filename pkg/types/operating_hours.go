package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OperatingHours maps lowercase weekday names to opening windows in "HH:MM".
type OperatingHours map[string]DayHours

// IsOpen reports whether now falls within the window configured for its
// weekday. Days without an entry are closed; windows are inclusive.
func (h OperatingHours) IsOpen(now time.Time) bool {
	day, ok := h[strings.ToLower(now.Weekday().String())]
	if !ok {
		return false
	}
	open, err := minutesOfDay(day.Open)
	if err != nil {
		return false
	}
	closing, err := minutesOfDay(day.Close)
	if err != nil {
		return false
	}
	current := now.Hour()*60 + now.Minute()
	return current >= open && current <= closing
}

// Validate rejects unknown weekdays and malformed times.
func (h OperatingHours) Validate() error {
	for day, window := range h {
		if _, ok := weekdays[day]; !ok {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if _, err := minutesOfDay(window.Open); err != nil {
			return fmt.Errorf("%s open: %w", day, err)
		}
		if _, err := minutesOfDay(window.Close); err != nil {
			return fmt.Errorf("%s close: %w", day, err)
		}
	}
	return nil
}

var weekdays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

func minutesOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	return jsonValue(map[string]DayHours(h))
}

func (h *OperatingHours) Scan(value interface{}) error {
	result := make(OperatingHours)
	if value != nil {
		if err := scanJSON(value, &result, "operating hours"); err != nil {
			return err
		}
	}
	*h = result
	return nil
}

// GormDBDataType picks jsonb on Postgres and text elsewhere.
func (OperatingHours) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDataType(db)
}

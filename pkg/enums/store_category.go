package enums

import "fmt"

// StoreCategory classifies a storefront for browsing filters.
type StoreCategory string

const (
	StoreCategoryGrocery     StoreCategory = "grocery"
	StoreCategoryElectronics StoreCategory = "electronics"
	StoreCategoryPharmacy    StoreCategory = "pharmacy"
	StoreCategoryFashion     StoreCategory = "fashion"
	StoreCategoryBeauty      StoreCategory = "beauty"
	StoreCategoryHome        StoreCategory = "home"
	StoreCategoryFood        StoreCategory = "food"
	StoreCategoryOther       StoreCategory = "other"
)

var validStoreCategorys = []StoreCategory{
	StoreCategoryGrocery,
	StoreCategoryElectronics,
	StoreCategoryPharmacy,
	StoreCategoryFashion,
	StoreCategoryBeauty,
	StoreCategoryHome,
	StoreCategoryFood,
	StoreCategoryOther,
}

// String implements fmt.Stringer.
func (s StoreCategory) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StoreCategory.
func (s StoreCategory) IsValid() bool {
	for _, candidate := range validStoreCategorys {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStoreCategory converts raw input into a StoreCategory.
func ParseStoreCategory(value string) (StoreCategory, error) {
	for _, candidate := range validStoreCategorys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store category %q", value)
}

package enums

import "fmt"

// WarehouseType describes the storage environment of a warehouse.
type WarehouseType string

const (
	WarehouseTypeMain WarehouseType = "MAIN"
	WarehouseTypeCold WarehouseType = "COLD"
	WarehouseTypeDry  WarehouseType = "DRY"
)

var validWarehouseTypes = []WarehouseType{
	WarehouseTypeMain,
	WarehouseTypeCold,
	WarehouseTypeDry,
}

// String implements fmt.Stringer.
func (t WarehouseType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WarehouseType.
func (t WarehouseType) IsValid() bool {
	for _, candidate := range validWarehouseTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWarehouseType converts raw input into a WarehouseType.
func ParseWarehouseType(value string) (WarehouseType, error) {
	for _, candidate := range validWarehouseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse type %q", value)
}

// Package catalog holds the product definitions the sale engine reads.
// Products are maintained by catalog management; the engine only decrements on-hand counts.
package catalog

import (
	"strings"

	"batteryshop/internal/core/apperror"
)

// Category classifies a product. It decides whether units carry serial numbers.
type Category string

const (
	CategoryCarTruckTractor Category = "car-truck-tractor"
	CategoryBike            Category = "bike"
	CategoryUPSInverter     Category = "ups-inverter"
	CategoryWater           Category = "water"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCarTruckTractor,
	CategoryBike,
	CategoryUPSInverter,
	CategoryWater,
}

// ParseCategory accepts the canonical value and the spellings used on shop paperwork
// ("Car/Truck/Tractor", "car_truck_tractor", "UPS Inverter", "Distilled Water", ...).
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", "/", "-", " ", "-").Replace(norm)
	for strings.Contains(norm, "--") {
		norm = strings.ReplaceAll(norm, "--", "-")
	}

	switch norm {
	case "car-truck-tractor", "automotive", "car", "truck", "tractor":
		return CategoryCarTruckTractor, nil
	case "bike", "two-wheeler":
		return CategoryBike, nil
	case "ups-inverter", "ups", "inverter":
		return CategoryUPSInverter, nil
	case "water", "distilled-water", "battery-water":
		return CategoryWater, nil
	}
	return "", apperror.NewValidation("unknown product category").WithDetail("category", s)
}

// IsSerialized reports whether every unit of the category is tracked by serial number.
func (c Category) IsSerialized() bool {
	switch c {
	case CategoryCarTruckTractor, CategoryBike, CategoryUPSInverter:
		return true
	case CategoryWater:
		return false
	}
	return false
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryCarTruckTractor:
		return "Car/Truck/Tractor"
	case CategoryBike:
		return "Bike"
	case CategoryUPSInverter:
		return "UPS/Inverter"
	case CategoryWater:
		return "Water"
	}
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCarTruckTractor, CategoryBike, CategoryUPSInverter, CategoryWater:
		return true
	}
	return false
}

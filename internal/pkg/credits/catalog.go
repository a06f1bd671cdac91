package credits

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/vkazarin/creditgate/internal/pkg/env"
)

// PriceTolerance is the absolute matching window, in rubles, between a paid
// amount and a catalog price. The processor rounds on its side; one ruble
// covers every rounding mode it uses.
const PriceTolerance = 1.0

// Package is one purchasable credit bundle. The catalog is static: loaded
// once at startup, never written by this service.
type Package struct {
	ID       string  `json:"id" validate:"required,max=50"`
	Name     string  `json:"name" validate:"required,max=150"`
	PriceRub float64 `json:"price_rub" validate:"gt=0"`
	Credits  int64   `json:"credits" validate:"gt=0"`
}

// Catalog holds the packages in declaration order. Order matters: when two
// packages fall within tolerance of the same amount, the first declared one
// wins.
type Catalog struct {
	packages []Package
}

var defaultPackages = []Package{
	{ID: "start", Name: "60 credits", PriceRub: 150, Credits: 60},
	{ID: "standard", Name: "250 credits", PriceRub: 500, Credits: 250},
	{ID: "pro", Name: "900 credits", PriceRub: 1500, Credits: 900},
}

// NewCatalog validates the package list and fixes its order.
func NewCatalog(packages []Package) (*Catalog, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one package")
	}

	v := validator.New()
	seen := make(map[string]struct{}, len(packages))
	for i, p := range packages {
		if err := v.Struct(p); err != nil {
			return nil, fmt.Errorf("package %d invalid: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate package id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return &Catalog{packages: append([]Package(nil), packages...)}, nil
}

// LoadCatalog builds the catalog from the CREDIT_PACKAGES env variable
// (JSON array) or the compiled-in default.
func LoadCatalog() (*Catalog, error) {
	raw := env.GetEnv("CREDIT_PACKAGES", "")
	if raw == "" {
		return NewCatalog(defaultPackages)
	}

	var packages []Package
	if err := json.Unmarshal([]byte(raw), &packages); err != nil {
		return nil, fmt.Errorf("CREDIT_PACKAGES is not valid JSON: %w", err)
	}
	return NewCatalog(packages)
}

// Resolve maps a paid amount (major units) to the first package whose price
// is within PriceTolerance. Declaration order breaks ties.
func (c *Catalog) Resolve(amountRub float64) (Package, bool) {
	for _, p := range c.packages {
		if math.Abs(p.PriceRub-amountRub) <= PriceTolerance {
			return p, true
		}
	}
	return Package{}, false
}

// Packages returns the catalog in declaration order.
func (c *Catalog) Packages() []Package {
	return append([]Package(nil), c.packages...)
}

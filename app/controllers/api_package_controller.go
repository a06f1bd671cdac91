package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vkazarin/creditgate/internal/pkg/credits"
)

// APIPackageController serves the public credit-package catalog.
type APIPackageController struct {
	catalog *credits.Catalog
}

func NewAPIPackageController(catalog *credits.Catalog) *APIPackageController {
	return &APIPackageController{catalog: catalog}
}

// HandleListPackages returns all purchasable packages. The route is wrapped
// in the cache middleware; the catalog itself never changes at runtime.
func (pc *APIPackageController) HandleListPackages(c *fiber.Ctx) error {
	packages := pc.catalog.Packages()
	out := make([]fiber.Map, 0, len(packages))
	for _, p := range packages {
		out = append(out, fiber.Map{
			"id":        p.ID,
			"name":      p.Name,
			"price_rub": p.PriceRub,
			"credits":   p.Credits,
		})
	}
	return c.JSON(fiber.Map{"packages": out})
}

package recipe

import (
	"errors"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Requirement is the amount of one ingredient needed to produce a
// quantity of a menu item.
type Requirement struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	Required     float64 `json:"required"`
}

// Shortfall reports an ingredient that cannot cover a requirement.
type Shortfall struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Required     float64 `json:"required"`
	Available    float64 `json:"available"`
}

// Availability is the result of a pure-read stock check. It reserves
// nothing; the consuming operation must re-check atomically.
type Availability struct {
	CanPrepare bool        `json:"can_prepare"`
	Missing    []Shortfall `json:"missing"`
}

// Resolver maps menu items to the ingredient quantities their recipes
// consume.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the ordered ingredient requirements for producing
// quantity units of the menu item.
func (r *Resolver) Resolve(menuItemID uint, quantity int) ([]Requirement, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.KindValidation, "quantity must be greater than zero")
	}

	var item models.MenuItem
	err := r.db.Preload("Recipe", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc, id asc")
	}).Preload("Recipe.Ingredient").First(&item, menuItemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "menu item %d not found", menuItemID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load menu item")
	}

	reqs := make([]Requirement, 0, len(item.Recipe))
	for _, line := range item.Recipe {
		if line.Ingredient.ID == 0 {
			return nil, apperr.New(apperr.KindNotFound,
				"recipe ingredient %d for menu item %q not found", line.IngredientID, item.Name)
		}
		reqs = append(reqs, Requirement{
			IngredientID: line.IngredientID,
			Name:         line.Ingredient.Name,
			Unit:         line.Ingredient.Unit,
			Required:     line.Quantity * float64(quantity),
		})
	}
	return reqs, nil
}

// CheckAvailability evaluates whether current stock covers producing
// quantity units of the menu item.
func (r *Resolver) CheckAvailability(menuItemID uint, quantity int) (*Availability, error) {
	reqs, err := r.Resolve(menuItemID, quantity)
	if err != nil {
		return nil, err
	}

	result := &Availability{CanPrepare: true, Missing: []Shortfall{}}
	for _, req := range reqs {
		var ing models.Ingredient
		if err := r.db.First(&ing, req.IngredientID).Error; err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load ingredient %d", req.IngredientID)
		}
		if ing.CurrentStock < req.Required {
			result.CanPrepare = false
			result.Missing = append(result.Missing, Shortfall{
				IngredientID: ing.ID,
				Name:         ing.Name,
				Required:     req.Required,
				Available:    ing.CurrentStock,
			})
		}
	}
	return result, nil
}

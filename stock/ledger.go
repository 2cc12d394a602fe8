package stock

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Ledger owns ingredient stock levels and their append-only transaction
// history. Every stock change goes through Apply so the snapshot and the
// ledger can never diverge.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Adjustment describes one requested stock movement.
type Adjustment struct {
	IngredientID uint
	Type         models.TransactionType
	Quantity     float64
	Reason       models.StockReason
	Reference    string
	PerformedBy  uint
	UnitPrice    float64 // 0 means use the ingredient's price per unit
}

// ApplyAdjustment atomically updates the stock snapshot and appends the
// matching ledger entry.
func (l *Ledger) ApplyAdjustment(adj Adjustment) (*models.Ingredient, *models.StockTransaction, error) {
	var (
		ing *models.Ingredient
		txn *models.StockTransaction
	)
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var err error
		ing, txn, err = l.Apply(tx, adj)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return ing, txn, nil
}

// Apply performs an adjustment inside the caller's transaction. The OUT
// path uses a conditional update guarded on current stock, so two
// concurrent deductions can never both pass the sufficiency check
// against a stale read.
func (l *Ledger) Apply(tx *gorm.DB, adj Adjustment) (*models.Ingredient, *models.StockTransaction, error) {
	if adj.Quantity <= 0 {
		return nil, nil, apperr.New(apperr.KindValidation, "quantity must be greater than zero")
	}
	if adj.Type != models.TransactionIn && adj.Type != models.TransactionOut {
		return nil, nil, apperr.New(apperr.KindValidation, "transaction type must be IN or OUT")
	}

	var res *gorm.DB
	if adj.Type == models.TransactionOut {
		res = tx.Model(&models.Ingredient{}).
			Where("id = ? AND current_stock >= ?", adj.IngredientID, adj.Quantity).
			Update("current_stock", gorm.Expr("current_stock - ?", adj.Quantity))
	} else {
		res = tx.Model(&models.Ingredient{}).
			Where("id = ?", adj.IngredientID).
			Update("current_stock", gorm.Expr("current_stock + ?", adj.Quantity))
	}
	if res.Error != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, res.Error, "failed to update stock")
	}

	var ing models.Ingredient
	if err := tx.First(&ing, adj.IngredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "ingredient %d not found", adj.IngredientID)
		}
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "failed to load ingredient")
	}
	if res.RowsAffected == 0 {
		// Ingredient exists, so the stock guard rejected the deduction
		return nil, nil, apperr.New(apperr.KindInsufficientStock,
			"insufficient stock for %s: have %.2f %s, need %.2f",
			ing.Name, ing.CurrentStock, ing.Unit, adj.Quantity)
	}

	unitPrice := adj.UnitPrice
	if unitPrice == 0 {
		unitPrice = ing.PricePerUnit
	}
	previous := ing.CurrentStock + adj.Quantity
	if adj.Type == models.TransactionIn {
		previous = ing.CurrentStock - adj.Quantity
	}

	txn := models.StockTransaction{
		IngredientID:  ing.ID,
		Type:          adj.Type,
		Quantity:      adj.Quantity,
		UnitPrice:     unitPrice,
		TotalAmount:   unitPrice * adj.Quantity,
		Reason:        adj.Reason,
		Reference:     adj.Reference,
		PerformedBy:   adj.PerformedBy,
		PreviousStock: previous,
		NewStock:      ing.CurrentStock,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, err, "failed to record stock transaction")
	}
	return &ing, &txn, nil
}

// CreateIngredient registers a new ingredient. Nonzero initial stock is
// seeded through a single ADJUSTMENT entry so history starts consistent
// with the snapshot.
func (l *Ledger) CreateIngredient(ing *models.Ingredient, initialStock float64, actorID uint) (*models.StockTransaction, error) {
	if ing.Name == "" || ing.Unit == "" {
		return nil, apperr.New(apperr.KindValidation, "ingredient name and unit are required")
	}
	if initialStock < 0 || ing.MinStock < 0 {
		return nil, apperr.New(apperr.KindValidation, "stock levels cannot be negative")
	}

	var seeded *models.StockTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		ing.CurrentStock = 0
		if err := tx.Create(ing).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.KindConflict, "ingredient %q already exists", ing.Name)
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to create ingredient")
		}
		if initialStock > 0 {
			updated, txn, err := l.Apply(tx, Adjustment{
				IngredientID: ing.ID,
				Type:         models.TransactionIn,
				Quantity:     initialStock,
				Reason:       models.ReasonAdjustment,
				Reference:    "initial stock",
				PerformedBy:  actorID,
			})
			if err != nil {
				return err
			}
			*ing = *updated
			seeded = txn
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}

// TransactionFilter narrows a ledger query. Zero values mean "any".
type TransactionFilter struct {
	IngredientID uint
	Type         models.TransactionType
	From, To     time.Time
	Limit        int
	Offset       int
}

// Query returns ledger entries newest first.
func (l *Ledger) Query(f TransactionFilter) ([]models.StockTransaction, error) {
	q := l.db.Preload("Ingredient").Order("created_at desc, id desc")
	if f.IngredientID != 0 {
		q = q.Where("ingredient_id = ?", f.IngredientID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at <= ?", f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q = q.Limit(limit).Offset(f.Offset)

	var txns []models.StockTransaction
	if err := q.Find(&txns).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to query stock transactions")
	}
	return txns, nil
}

// LowStock lists active ingredients at or below their minimum level.
func (l *Ledger) LowStock() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := l.db.
		Where("is_active = ? AND current_stock <= min_stock", true).
		Order("name asc").
		Find(&ingredients).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to query low stock")
	}
	return ingredients, nil
}

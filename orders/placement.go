package orders

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/recipe"
	"restaurant-pos-api/stock"
	"restaurant-pos-api/tables"
)

// Service coordinates the recipe resolver, stock ledger, order
// aggregate and table state machine for order placement and lifecycle
// operations. The notifier is injected at startup and lives for the
// process lifetime.
type Service struct {
	db       *gorm.DB
	ledger   *stock.Ledger
	resolver *recipe.Resolver
	tables   *tables.Machine
	notifier notify.Notifier
	log      *slog.Logger
}

func NewService(db *gorm.DB, ledger *stock.Ledger, resolver *recipe.Resolver, tm *tables.Machine, notifier notify.Notifier, log *slog.Logger) *Service {
	return &Service{
		db:       db,
		ledger:   ledger,
		resolver: resolver,
		tables:   tm,
		notifier: notifier,
		log:      log,
	}
}

// ItemRequest is one requested line of an incoming order.
type ItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// PlaceOrderRequest is the input to PlaceOrder.
type PlaceOrderRequest struct {
	TableNo  int             `json:"table_no" binding:"required"`
	Customer CustomerDetails `json:"customer"`
	Items    []ItemRequest   `json:"items" binding:"required,min=1,dive"`
	ActorID  uint            `json:"-"`
}

// PlaceOrderResult reports what placement did: the resulting order,
// whether it was created by this call, and exactly which line items
// this call added (the kitchen only needs the delta on a merge).
type PlaceOrderResult struct {
	Order      *models.Order      `json:"order"`
	IsNewOrder bool               `json:"is_new_order"`
	AddedItems []models.OrderItem `json:"added_items"`
}

// preparedBatch is the outcome of resolving and pricing the incoming
// items before anything is written.
type preparedBatch struct {
	lines    []models.OrderItem
	contrib  billContribution
	required []stock.Adjustment // aggregated OUT deductions, one per ingredient
}

// PlaceOrder runs the full placement workflow:
//
//  1. validate and price the requested items
//  2. pre-flight the ingredient requirements of the whole batch against
//     current stock (pure read, nothing reserved)
//  3. in one store transaction, merge the items into the table's open
//     order and apply the SALE deductions; the ledger's conditional
//     update re-checks sufficiency, so a concurrent deduction rolls the
//     whole placement back rather than leaving order and stock out of
//     sync
//  4. flip the table to Occupied and emit notifications, both
//     best-effort
//
// If any ingredient is short the placement fails with
// InsufficientIngredients naming the first shortfall, and neither the
// order nor the stock is touched. Items merged by previous calls are
// never rolled back.
func (s *Service) PlaceOrder(req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.New(apperr.KindValidation, "item quantity must be greater than zero")
		}
	}

	table, err := s.tables.FindByNo(req.TableNo)
	if err != nil {
		return nil, err
	}

	batch, err := s.prepareBatch(req)
	if err != nil {
		return nil, err
	}
	if err := s.preflightStock(batch.required); err != nil {
		return nil, err
	}

	var (
		order    *models.Order
		isNew    bool
		added    []models.OrderItem
		hadItems bool
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findOpenOrder(tx, table.ID)
		if err != nil {
			return err
		}
		if existing == nil && req.Customer.Name == "" {
			return apperr.New(apperr.KindValidation, "customer name is required for a new order")
		}
		hadItems = existing != nil && len(existing.Items) > 0

		order, isNew, added, err = placeOrUpdate(tx, table.ID, req.Customer, batch.lines, batch.contrib)
		if err != nil {
			return err
		}

		for _, adj := range batch.required {
			adj.Reference = fmt.Sprintf("order:%d", order.ID)
			adj.PerformedBy = req.ActorID
			if _, _, err := s.ledger.Apply(tx, adj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		"order_id", order.ID,
		"table_no", req.TableNo,
		"is_new_order", isNew,
		"added_items", len(added))

	if !hadItems {
		if t := s.tables.MarkOccupied(table.ID, order.ID); t != nil {
			s.notifier.NotifyTableUpdate(t)
		}
	}
	s.notifier.NotifyKitchen(notify.KitchenTicket{
		Order:      order,
		IsNewOrder: isNew,
		AddedItems: added,
	})

	return &PlaceOrderResult{Order: order, IsNewOrder: isNew, AddedItems: added}, nil
}

// prepareBatch snapshots menu prices into line items and aggregates the
// recipe requirements of every requested item into per-ingredient OUT
// deductions.
func (s *Service) prepareBatch(req PlaceOrderRequest) (*preparedBatch, error) {
	batch := &preparedBatch{}
	totals := map[uint]float64{}
	var ingredientOrder []uint

	for _, item := range req.Items {
		var menuItem models.MenuItem
		if err := s.db.First(&menuItem, item.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.KindNotFound, "menu item %d not found", item.MenuItemID)
			}
			return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load menu item")
		}
		if !menuItem.IsAvailable {
			return nil, apperr.New(apperr.KindValidation, "menu item %q is not available", menuItem.Name)
		}

		unitPrice := menuItem.Price - menuItem.Discount
		if unitPrice < 0 {
			unitPrice = 0
		}
		lineTotal := unitPrice * float64(item.Quantity)
		batch.lines = append(batch.lines, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: lineTotal,
		})
		batch.contrib.total += lineTotal
		batch.contrib.tax += lineTotal * menuItem.TaxRate / 100

		reqs, err := s.resolver.Resolve(menuItem.ID, item.Quantity)
		if err != nil {
			return nil, err
		}
		for _, r := range reqs {
			if _, seen := totals[r.IngredientID]; !seen {
				ingredientOrder = append(ingredientOrder, r.IngredientID)
			}
			totals[r.IngredientID] += r.Required
		}
	}

	for _, id := range ingredientOrder {
		batch.required = append(batch.required, stock.Adjustment{
			IngredientID: id,
			Type:         models.TransactionOut,
			Quantity:     totals[id],
			Reason:       models.ReasonSale,
		})
	}
	return batch, nil
}

// preflightStock verifies the whole batch against current stock before
// any write. Pure read: the check-then-consume gap is closed later by
// the ledger's conditional update inside the placement transaction.
func (s *Service) preflightStock(required []stock.Adjustment) error {
	for _, adj := range required {
		var ing models.Ingredient
		if err := s.db.First(&ing, adj.IngredientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.KindNotFound, "ingredient %d not found", adj.IngredientID)
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to load ingredient")
		}
		if ing.CurrentStock < adj.Quantity {
			return apperr.New(apperr.KindInsufficientIngredients,
				"insufficient ingredients: %s requires %.2f %s but only %.2f available",
				ing.Name, adj.Quantity, ing.Unit, ing.CurrentStock)
		}
	}
	return nil
}

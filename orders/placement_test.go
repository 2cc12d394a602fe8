package orders

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/recipe"
	"restaurant-pos-api/stock"
	"restaurant-pos-api/tables"
)

// fakeNotifier records notifications for assertions.
type fakeNotifier struct {
	kitchen      []notify.KitchenTicket
	orderUpdates []*models.Order
	tableUpdates []*models.Table
}

func (f *fakeNotifier) NotifyKitchen(t notify.KitchenTicket) { f.kitchen = append(f.kitchen, t) }

func (f *fakeNotifier) NotifyOrderUpdate(o *models.Order) {
	f.orderUpdates = append(f.orderUpdates, o)
}

func (f *fakeNotifier) NotifyTableUpdate(tb *models.Table) {
	f.tableUpdates = append(f.tableUpdates, tb)
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	ledger   *stock.Ledger
	notifier *fakeNotifier
	flour    models.Ingredient
	cheese   models.Ingredient
	pizza    models.MenuItem // 50g flour per unit via recipe
	pasta    models.MenuItem
	table3   models.Table
	table5   models.Table
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Ingredient{}, &models.StockTransaction{},
		&models.MenuItem{}, &models.RecipeItem{},
		&models.Table{}, &models.Order{}, &models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &fakeNotifier{}
	ledger := stock.NewLedger(db)
	resolver := recipe.NewResolver(db)
	machine := tables.NewMachine(db, log)
	svc := NewService(db, ledger, resolver, machine, notifier, log)

	f := &fixture{db: db, svc: svc, ledger: ledger, notifier: notifier}

	f.flour = models.Ingredient{Name: "Flour", Unit: "g", CurrentStock: 1000, IsActive: true}
	f.cheese = models.Ingredient{Name: "Cheese", Unit: "g", CurrentStock: 500, IsActive: true}
	if err := db.Create(&f.flour).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&f.cheese).Error; err != nil {
		t.Fatal(err)
	}

	f.pizza = models.MenuItem{
		ItemCode: "PZ-01", Name: "Margherita", Price: 250, TaxRate: 10, IsAvailable: true,
		Recipe: []models.RecipeItem{{IngredientID: f.flour.ID, Quantity: 50, Position: 0}},
	}
	f.pasta = models.MenuItem{
		ItemCode: "PA-01", Name: "Alfredo", Price: 180, TaxRate: 10, IsAvailable: true,
		Recipe: []models.RecipeItem{{IngredientID: f.cheese.ID, Quantity: 40, Position: 0}},
	}
	if err := db.Create(&f.pizza).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&f.pasta).Error; err != nil {
		t.Fatal(err)
	}

	f.table3 = models.Table{TableNo: 3, Seats: 4, Status: models.TableAvailable}
	f.table5 = models.Table{TableNo: 5, Seats: 2, Status: models.TableAvailable}
	if err := db.Create(&f.table3).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&f.table5).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) stockOf(t *testing.T, id uint) float64 {
	t.Helper()
	var ing models.Ingredient
	if err := f.db.First(&ing, id).Error; err != nil {
		t.Fatal(err)
	}
	return ing.CurrentStock
}

func TestPlaceOrderCreatesOrderAndDeductsStock(t *testing.T) {
	f := setup(t)

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi", Guests: 2},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 2}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !result.IsNewOrder {
		t.Error("expected a new order")
	}
	if result.Order.Status != models.StatusPending {
		t.Errorf("expected Pending, got %s", result.Order.Status)
	}
	if result.Order.Total != 500 || result.Order.Tax != 50 || result.Order.TotalWithTax != 550 {
		t.Errorf("unexpected bills: %+v", result.Order)
	}

	// 2 pizzas consume 100g flour
	if got := f.stockOf(t, f.flour.ID); got != 900 {
		t.Errorf("expected 900g flour, got %v", got)
	}

	// Exactly one OUT transaction referencing the order
	txns, err := f.ledger.Query(stock.TransactionFilter{IngredientID: f.flour.ID, Type: models.TransactionOut})
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 OUT transaction, got %d", len(txns))
	}
	if txns[0].Quantity != 100 || txns[0].Reason != models.ReasonSale {
		t.Errorf("unexpected deduction: %+v", txns[0])
	}
	if want := fmt.Sprintf("order:%d", result.Order.ID); txns[0].Reference != want {
		t.Errorf("expected reference %s, got %s", want, txns[0].Reference)
	}

	// Table flipped to Occupied and linked
	var table models.Table
	if err := f.db.First(&table, f.table3.ID).Error; err != nil {
		t.Fatal(err)
	}
	if table.Status != models.TableOccupied {
		t.Errorf("expected table Occupied, got %s", table.Status)
	}
	if table.CurrentOrderID == nil || *table.CurrentOrderID != result.Order.ID {
		t.Error("expected table linked to the new order")
	}

	// Kitchen got the full new order
	if len(f.notifier.kitchen) != 1 || !f.notifier.kitchen[0].IsNewOrder {
		t.Errorf("expected one new-order kitchen ticket, got %+v", f.notifier.kitchen)
	}
	if len(f.notifier.tableUpdates) != 1 {
		t.Errorf("expected a table update notification, got %d", len(f.notifier.tableUpdates))
	}
}

func TestPlaceOrderMergesIntoOpenOrder(t *testing.T) {
	f := setup(t)

	first, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 2}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	second, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo: 3,
		Items:   []ItemRequest{{MenuItemID: f.pasta.ID, Quantity: 1}},
		ActorID: 1,
	})
	if err != nil {
		t.Fatalf("merge PlaceOrder: %v", err)
	}
	if second.IsNewOrder {
		t.Error("expected merge into existing order")
	}
	if second.Order.ID != first.Order.ID {
		t.Errorf("expected same order %d, got %d", first.Order.ID, second.Order.ID)
	}
	if len(second.Order.Items) != 2 {
		t.Fatalf("expected 2 items after merge, got %d", len(second.Order.Items))
	}
	// Previously merged items preserved, order-appending
	if second.Order.Items[0].MenuItemID != f.pizza.ID || second.Order.Items[1].MenuItemID != f.pasta.ID {
		t.Errorf("expected items in merge order, got %+v", second.Order.Items)
	}
	if len(second.AddedItems) != 1 || second.AddedItems[0].MenuItemID != f.pasta.ID {
		t.Errorf("expected only the pasta as added, got %+v", second.AddedItems)
	}

	// Bills are the exact sum of per-merge contributions: 500+50 then 180+18
	if second.Order.Total != 680 || second.Order.Tax != 68 || second.Order.TotalWithTax != 748 {
		t.Errorf("unexpected merged bills: total=%v tax=%v with_tax=%v",
			second.Order.Total, second.Order.Tax, second.Order.TotalWithTax)
	}

	// Customer retained from the first call
	if second.Order.CustomerName != "Ravi" {
		t.Errorf("expected customer retained, got %q", second.Order.CustomerName)
	}

	// Kitchen ticket for the merge carries only the delta
	last := f.notifier.kitchen[len(f.notifier.kitchen)-1]
	if last.IsNewOrder || len(last.AddedItems) != 1 {
		t.Errorf("expected merge ticket with 1 added item, got %+v", last)
	}

	// Still exactly one open order for the table
	var count int64
	f.db.Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", f.table3.ID, models.StatusCompleted).
		Count(&count)
	if count != 1 {
		t.Errorf("expected one open order, got %d", count)
	}
}

func TestPlaceOrderCustomerFieldsWinPerField(t *testing.T) {
	f := setup(t)

	if _, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi", Phone: "111", Guests: 2},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	}); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Phone: "222"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Order.CustomerName != "Ravi" {
		t.Errorf("expected name retained, got %q", result.Order.CustomerName)
	}
	if result.Order.CustomerPhone != "222" {
		t.Errorf("expected phone overwritten, got %q", result.Order.CustomerPhone)
	}
	if result.Order.Guests != 2 {
		t.Errorf("expected guests retained, got %d", result.Order.Guests)
	}
}

func TestPlaceOrderInsufficientIngredientsIsAllOrNothing(t *testing.T) {
	f := setup(t)

	// 25 pizzas need 1250g flour, only 1000g available
	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi"},
		Items: []ItemRequest{
			{MenuItemID: f.pasta.ID, Quantity: 1},
			{MenuItemID: f.pizza.ID, Quantity: 25},
		},
		ActorID: 1,
	})
	if !apperr.Is(err, apperr.KindInsufficientIngredients) {
		t.Fatalf("expected InsufficientIngredients, got %v", err)
	}

	// Nothing deducted, no order created, table untouched
	if got := f.stockOf(t, f.flour.ID); got != 1000 {
		t.Errorf("expected flour untouched, got %v", got)
	}
	if got := f.stockOf(t, f.cheese.ID); got != 500 {
		t.Errorf("expected cheese untouched, got %v", got)
	}
	var orderCount int64
	f.db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("expected no order, got %d", orderCount)
	}
	var table models.Table
	f.db.First(&table, f.table3.ID)
	if table.Status != models.TableAvailable {
		t.Errorf("expected table still Available, got %s", table.Status)
	}
}

func TestPlaceOrderRequiresCustomerForNewOrder(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo: 3,
		Items:   []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID: 1,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderUnknownTable(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  42,
		Customer: CustomerDetails{Name: "Ravi"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCompletingOrderReleasesTable(t *testing.T) {
	f := setup(t)

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	order, err := f.svc.UpdateStatus(result.Order.ID, models.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if order.Status != models.StatusCompleted {
		t.Errorf("expected Completed, got %s", order.Status)
	}

	var table models.Table
	if err := f.db.First(&table, f.table3.ID).Error; err != nil {
		t.Fatal(err)
	}
	if table.Status != models.TableAvailable || table.CurrentOrderID != nil {
		t.Errorf("expected table released, got %+v", table)
	}

	// A table update was broadcast for the release
	last := f.notifier.tableUpdates[len(f.notifier.tableUpdates)-1]
	if last.Status != models.TableAvailable {
		t.Errorf("expected Available table update, got %s", last.Status)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	f := setup(t)

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateStatus(result.Order.ID, models.StatusReady); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for Pending -> Ready, got %v", err)
	}

	// Completed is terminal
	if _, err := f.svc.UpdateStatus(result.Order.ID, models.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(result.Order.ID, models.StatusPending); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected reopening to be rejected, got %v", err)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := setup(t)
	if _, err := f.svc.UpdateStatus(404, models.StatusReady); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBookedTableFlowsToOccupiedOnFirstItems(t *testing.T) {
	f := setup(t)

	machine := tables.NewMachine(f.db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	booking, table, err := machine.Book(5, "Asha", "9999", 2)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if table.Status != models.TableBooked || booking.Status != models.StatusBooked {
		t.Fatalf("unexpected booking state: table=%s order=%s", table.Status, booking.Status)
	}

	// Customer arrives and the first items land on the booked table
	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo: 5,
		Items:   []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID: 1,
	})
	if err != nil {
		t.Fatalf("PlaceOrder on booked table: %v", err)
	}
	if result.IsNewOrder {
		t.Error("expected merge into the placeholder order")
	}
	if result.Order.ID != booking.ID {
		t.Errorf("expected placeholder order %d, got %d", booking.ID, result.Order.ID)
	}
	if result.Order.Status != models.StatusPending {
		t.Errorf("expected Booked -> Pending upgrade, got %s", result.Order.Status)
	}

	var reloaded models.Table
	if err := f.db.First(&reloaded, f.table5.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Status != models.TableOccupied {
		t.Errorf("expected Booked -> Occupied, got %s", reloaded.Status)
	}
}

func TestFullLifecycleThroughKitchen(t *testing.T) {
	f := setup(t)

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableNo:  3,
		Customer: CustomerDetails{Name: "Ravi"},
		Items:    []ItemRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
		ActorID:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []models.OrderStatus{
		models.StatusInProgress, models.StatusReady, models.StatusCompleted,
	} {
		if _, err := f.svc.UpdateStatus(result.Order.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	order, err := f.svc.GetOrder(result.Order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != models.StatusCompleted {
		t.Errorf("expected Completed, got %s", order.Status)
	}
}

package stock

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

func testDB(t *testing.T) *gorm.DB {
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
	// A single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Ingredient{}, &models.StockTransaction{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestCreateIngredientSeedsLedger(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Flour", Unit: "g", MinStock: 100}
	txn, err := ledger.CreateIngredient(ing, 1000, 1)
	if err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	if ing.CurrentStock != 1000 {
		t.Errorf("expected current stock 1000, got %v", ing.CurrentStock)
	}
	if txn == nil {
		t.Fatal("expected a seed transaction")
	}
	if txn.Reason != models.ReasonAdjustment || txn.Type != models.TransactionIn {
		t.Errorf("expected IN/ADJUSTMENT seed, got %s/%s", txn.Type, txn.Reason)
	}
	if txn.PreviousStock != 0 || txn.NewStock != 1000 {
		t.Errorf("expected previous 0 and new 1000, got %v and %v", txn.PreviousStock, txn.NewStock)
	}
}

func TestCreateIngredientZeroStockHasNoTransaction(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Salt", Unit: "g"}
	txn, err := ledger.CreateIngredient(ing, 0, 1)
	if err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	if txn != nil {
		t.Errorf("expected no seed transaction for zero stock, got %+v", txn)
	}
}

func TestDuplicateIngredientNameConflicts(t *testing.T) {
	ledger := NewLedger(testDB(t))

	if _, err := ledger.CreateIngredient(&models.Ingredient{Name: "Sugar", Unit: "g"}, 0, 1); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	_, err := ledger.CreateIngredient(&models.Ingredient{Name: "Sugar", Unit: "kg"}, 0, 1)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict for duplicate name, got %v", err)
	}
}

func TestOutNeverDrivesStockNegative(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Flour", Unit: "g"}
	if _, err := ledger.CreateIngredient(ing, 1000, 1); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}

	_, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: ing.ID,
		Type:         models.TransactionOut,
		Quantity:     1200,
		Reason:       models.ReasonSale,
		PerformedBy:  1,
	})
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}

	// Stock must be unchanged and no OUT transaction recorded
	var reloaded models.Ingredient
	if err := ledger.db.First(&reloaded, ing.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentStock != 1000 {
		t.Errorf("expected stock unchanged at 1000, got %v", reloaded.CurrentStock)
	}
	var count int64
	ledger.db.Model(&models.StockTransaction{}).Where("type = ?", models.TransactionOut).Count(&count)
	if count != 0 {
		t.Errorf("expected no OUT transaction, found %d", count)
	}
}

func TestLedgerConservation(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Flour", Unit: "g"}
	if _, err := ledger.CreateIngredient(ing, 500, 1); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}

	ops := []Adjustment{
		{IngredientID: ing.ID, Type: models.TransactionIn, Quantity: 1000, Reason: models.ReasonPurchase, PerformedBy: 1},
		{IngredientID: ing.ID, Type: models.TransactionOut, Quantity: 300, Reason: models.ReasonSale, PerformedBy: 1},
		{IngredientID: ing.ID, Type: models.TransactionOut, Quantity: 200, Reason: models.ReasonWaste, PerformedBy: 1},
		{IngredientID: ing.ID, Type: models.TransactionIn, Quantity: 50, Reason: models.ReasonAdjustment, PerformedBy: 1},
	}
	for _, op := range ops {
		if _, _, err := ledger.ApplyAdjustment(op); err != nil {
			t.Fatalf("ApplyAdjustment(%+v): %v", op, err)
		}
	}

	var reloaded models.Ingredient
	if err := ledger.db.First(&reloaded, ing.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	// 500 seed + 1000 - 300 - 200 + 50
	if reloaded.CurrentStock != 1050 {
		t.Errorf("expected 1050, got %v", reloaded.CurrentStock)
	}

	// Replaying the ledger must reproduce the snapshot
	txns, err := ledger.Query(TransactionFilter{IngredientID: ing.ID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var derived float64
	for _, txn := range txns {
		if txn.Type == models.TransactionIn {
			derived += txn.Quantity
		} else {
			derived -= txn.Quantity
		}
	}
	if derived != reloaded.CurrentStock {
		t.Errorf("ledger sum %v does not match snapshot %v", derived, reloaded.CurrentStock)
	}
}

func TestEachTransactionLinksPreviousToNew(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Butter", Unit: "g"}
	if _, err := ledger.CreateIngredient(ing, 100, 1); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	if _, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: ing.ID, Type: models.TransactionOut, Quantity: 40,
		Reason: models.ReasonSale, PerformedBy: 1,
	}); err != nil {
		t.Fatalf("ApplyAdjustment: %v", err)
	}

	txns, err := ledger.Query(TransactionFilter{IngredientID: ing.ID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, txn := range txns {
		want := txn.PreviousStock + txn.Quantity
		if txn.Type == models.TransactionOut {
			want = txn.PreviousStock - txn.Quantity
		}
		if txn.NewStock != want {
			t.Errorf("transaction %d: new stock %v, want %v", txn.ID, txn.NewStock, want)
		}
	}
}

func TestQueryNewestFirstAndFiltered(t *testing.T) {
	ledger := NewLedger(testDB(t))

	flour := &models.Ingredient{Name: "Flour", Unit: "g"}
	sugar := &models.Ingredient{Name: "Sugar", Unit: "g"}
	if _, err := ledger.CreateIngredient(flour, 100, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.CreateIngredient(sugar, 100, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: flour.ID, Type: models.TransactionOut, Quantity: 10,
		Reason: models.ReasonSale, PerformedBy: 1,
	}); err != nil {
		t.Fatal(err)
	}

	txns, err := ledger.Query(TransactionFilter{IngredientID: flour.ID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 flour transactions, got %d", len(txns))
	}
	if txns[0].Type != models.TransactionOut {
		t.Errorf("expected newest (OUT) first, got %s", txns[0].Type)
	}

	outOnly, err := ledger.Query(TransactionFilter{Type: models.TransactionOut})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(outOnly) != 1 {
		t.Errorf("expected 1 OUT transaction, got %d", len(outOnly))
	}
}

func TestQueryDateRange(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Flour", Unit: "g"}
	if _, err := ledger.CreateIngredient(ing, 100, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: ing.ID, Type: models.TransactionOut, Quantity: 10,
		Reason: models.ReasonSale, PerformedBy: 1,
	}); err != nil {
		t.Fatal(err)
	}

	// Age the seed entry out of the recent window
	past := time.Now().Add(-48 * time.Hour)
	if err := ledger.db.Model(&models.StockTransaction{}).
		Where("type = ?", models.TransactionIn).
		Update("created_at", past).Error; err != nil {
		t.Fatal(err)
	}

	recent, err := ledger.Query(TransactionFilter{From: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recent) != 1 || recent[0].Type != models.TransactionOut {
		t.Errorf("expected only the recent OUT entry, got %+v", recent)
	}

	old, err := ledger.Query(TransactionFilter{
		From: past.Add(-time.Hour),
		To:   time.Now().Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(old) != 1 || old[0].Type != models.TransactionIn {
		t.Errorf("expected only the aged IN entry, got %+v", old)
	}

	all, err := ledger.Query(TransactionFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both entries without a window, got %d", len(all))
	}
}

func TestLowStock(t *testing.T) {
	ledger := NewLedger(testDB(t))

	low := &models.Ingredient{Name: "Yeast", Unit: "g", MinStock: 50}
	ok := &models.Ingredient{Name: "Flour", Unit: "g", MinStock: 50}
	if _, err := ledger.CreateIngredient(low, 30, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.CreateIngredient(ok, 500, 1); err != nil {
		t.Fatal(err)
	}

	ingredients, err := ledger.LowStock()
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(ingredients) != 1 || ingredients[0].Name != "Yeast" {
		t.Errorf("expected only Yeast below minimum, got %+v", ingredients)
	}
}

func TestRejectsNonPositiveQuantity(t *testing.T) {
	ledger := NewLedger(testDB(t))

	ing := &models.Ingredient{Name: "Flour", Unit: "g"}
	if _, err := ledger.CreateIngredient(ing, 100, 1); err != nil {
		t.Fatal(err)
	}
	_, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: ing.ID, Type: models.TransactionIn, Quantity: 0,
		Reason: models.ReasonPurchase, PerformedBy: 1,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for zero quantity, got %v", err)
	}
}

func TestUnknownIngredientNotFound(t *testing.T) {
	ledger := NewLedger(testDB(t))

	_, _, err := ledger.ApplyAdjustment(Adjustment{
		IngredientID: 999, Type: models.TransactionIn, Quantity: 10,
		Reason: models.ReasonPurchase, PerformedBy: 1,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

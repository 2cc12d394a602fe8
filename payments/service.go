package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Service records payments against orders. Payments arrive either by
// manual entry at the counter or through the gateway webhook.
type Service struct {
	db     *gorm.DB
	secret []byte
	log    *slog.Logger
}

func NewService(db *gorm.DB, webhookSecret string, log *slog.Logger) *Service {
	return &Service{db: db, secret: []byte(webhookSecret), log: log}
}

// WebhookEventPayload is the externally verified event shape delivered
// by the payment gateway.
type WebhookEventPayload struct {
	EventID          string  `json:"event_id"`
	ExternalOrderRef string  `json:"external_order_ref"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
}

// statusMap translates the gateway's status vocabulary to ours.
var statusMap = map[string]models.PaymentStatus{
	"pending":   models.PaymentPending,
	"succeeded": models.PaymentCompleted,
	"completed": models.PaymentCompleted,
	"captured":  models.PaymentCompleted,
	"failed":    models.PaymentFailed,
	"cancelled": models.PaymentCancelled,
	"canceled":  models.PaymentCancelled,
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw body.
func (s *Service) VerifySignature(body []byte, signature string) error {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperr.New(apperr.KindExternalVerification, "webhook signature mismatch")
	}
	return nil
}

// HandleWebhook verifies, records and links a gateway event. Events
// whose external reference matches no internal order are recorded as
// dropped and never retried; no Payment row is created for them. The
// returned payment is nil when the event was dropped.
func (s *Service) HandleWebhook(body []byte, signature string) (*models.Payment, error) {
	if err := s.VerifySignature(body, signature); err != nil {
		return nil, err
	}

	var payload WebhookEventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "malformed webhook payload")
	}
	if payload.EventID == "" || payload.ExternalOrderRef == "" {
		return nil, apperr.New(apperr.KindValidation, "event_id and external_order_ref are required")
	}
	status, ok := statusMap[payload.Status]
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "unknown payment status %q", payload.Status)
	}

	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event := models.WebhookEvent{
			EventID:     payload.EventID,
			ExternalRef: payload.ExternalOrderRef,
			Amount:      payload.Amount,
			Currency:    payload.Currency,
			RawStatus:   payload.Status,
		}

		var order models.Order
		err := tx.Where("external_ref = ?", payload.ExternalOrderRef).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			event.Dropped = true
			event.DropReason = "no matching internal order"
			if err := tx.Create(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return nil // duplicate delivery, already recorded
				}
				return apperr.Wrap(apperr.KindInternal, err, "failed to record webhook event")
			}
			s.log.Warn("webhook event dropped",
				slog.String("event_id", payload.EventID),
				slog.String("external_ref", payload.ExternalOrderRef))
			return nil
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to look up order")
		}

		if err := tx.Create(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil // duplicate delivery, already processed
			}
			return apperr.Wrap(apperr.KindInternal, err, "failed to record webhook event")
		}

		p := models.Payment{
			OrderID:       order.ID,
			Amount:        payload.Amount,
			Currency:      payload.Currency,
			Status:        status,
			Method:        "gateway",
			TransactionID: payload.EventID,
		}
		if err := tx.Create(&p).Error; err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to create payment")
		}
		payment = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Create records a manual payment entry against an order.
func (s *Service) Create(orderID uint, amount float64, currency, method string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.KindValidation, "amount must be greater than zero")
	}
	if currency == "" {
		currency = "INR"
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order %d not found", orderID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load order")
	}

	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        amount,
		Currency:      currency,
		Status:        models.PaymentCompleted,
		Method:        method,
		TransactionID: uuid.NewString(),
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create payment")
	}
	return &payment, nil
}

// ListByOrder returns all payments recorded for an order.
func (s *Service) ListByOrder(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("order_id = ?", orderID).Order("created_at desc").Find(&payments).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list payments")
	}
	return payments, nil
}

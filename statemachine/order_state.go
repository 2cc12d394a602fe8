package statemachine

import (
	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// Transition defines a valid state change for a dine-in order
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// validTransitions is the authoritative state machine definition.
// Booked is entered only via table pre-booking; the first item added
// moves the order to Pending. Completed is terminal.
var validTransitions = []Transition{
	{From: models.StatusBooked, To: models.StatusPending},
	{From: models.StatusPending, To: models.StatusInProgress},
	{From: models.StatusInProgress, To: models.StatusReady},
	{From: models.StatusReady, To: models.StatusCompleted},
	// Counter settlement closes a Pending order without kitchen stages
	{From: models.StatusPending, To: models.StatusCompleted},
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks whether an order may move from one state to another
func CanTransition(from, to models.OrderStatus) error {
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	if from == models.StatusCompleted {
		return apperr.New(apperr.KindValidation, "order is completed and cannot be reopened")
	}
	return apperr.New(apperr.KindValidation,
		"invalid transition: %s -> %s is not allowed. Valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

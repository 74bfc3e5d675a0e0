package models

import (
	"encoding/json"
	"strings"
	"time"
)

// OrderStatus is the canonical, lowercase status enum. Older payloads used
// capitalized spellings ("Pending", "In Progress"); those are normalized on
// decode and never produced on encode.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in-progress"
	StatusCompleted  OrderStatus = "completed"
)

// Next returns the only valid successor of s. The second return value is
// false when s is terminal or unknown.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusPending:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether next is the immediate successor of s.
// Transitions are strictly linear: pending -> in-progress -> completed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	n, ok := s.Next()
	return ok && n == next
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// NormalizeStatus maps legacy spellings to the canonical enum.
func NormalizeStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", "-")) {
	case "pending":
		return StatusPending
	case "in-progress", "inprogress", "processing":
		return StatusInProgress
	case "completed", "complete", "done":
		return StatusCompleted
	default:
		return OrderStatus(raw)
	}
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

// Order is the persisted entity as served by the backend. The backend owns
// the _id; uniqueness is enforced there, not by the client.
type Order struct {
	ID                string            `json:"_id"`
	CustomerName      string            `json:"customerName"`
	PhoneNumber       string            `json:"phoneNumber"`
	Address           string            `json:"address"`
	TotalAmount       float64           `json:"totalAmount"`
	Status            OrderStatus       `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	DeliveryDate      *time.Time        `json:"deliveryDate,omitempty"`
	MeasurementSketch string            `json:"measurementSketch"`
	Measurements      MeasurementFields `json:"measurements"`
	SketchData        *SketchData       `json:"sketchData,omitempty"`
	DesignReference   []string          `json:"designReference"`
	SpecialNotes      string            `json:"specialNotes"`
}

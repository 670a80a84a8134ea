package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeNewOrder       NotificationType = "new_order"
	TypePaidOrder      NotificationType = "paid_order"
	TypeNewUser        NotificationType = "new_user"
	TypeOrderCancelled NotificationType = "order_cancelled"
	TypeNewReview      NotificationType = "new_review"
	TypeSystem         NotificationType = "system"
	TypeNewRent        NotificationType = "new_rent"
	TypePaidRent       NotificationType = "paid_rent"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeNewOrder, TypePaidOrder, TypeNewUser, TypeOrderCancelled,
		TypeNewReview, TypeSystem, TypeNewRent, TypePaidRent:
		return true
	}
	return false
}

// Metadata keys recognized by the noise filter.
const (
	MetaKeyTest      = "test"
	MetaKeyDebugMode = "debugMode"
	MetaKeyAutoRead  = "autoRead"
)

// Metadata is the free-form key/value map attached to a notification.
// Stored as JSONB.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

// Bool reads a metadata key as a boolean, tolerating the JSON shapes a
// loosely written producer may have stored (true, "true", 1).
func (m Metadata) Bool(key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v != 0
	}
	return false
}

// Notification is the backend-owned event record. It is immutable once
// created; the engine wraps it instead of mutating it in place.
type Notification struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Type         NotificationType `json:"type" db:"type"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	OrderID      *string          `json:"order_id,omitempty" db:"order_id"`
	CustomerName *string          `json:"customer_name,omitempty" db:"customer_name"`
	ProductName  *string          `json:"product_name,omitempty" db:"product_name"`
	Amount       *float64         `json:"amount,omitempty" db:"amount"`
	Metadata     Metadata         `json:"metadata" db:"metadata"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPushUnsupported      = errors.New("push delivery not supported")
)

// CacheTagNotifications tags every cached read derived from the
// notifications table; invalidated after any successful mutation.
const CacheTagNotifications = "notifications"

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SaleStatusPending       = "pending"
	SaleStatusConfirmed     = "confirmed"
	SaleStatusRejected      = "rejected"
	SaleStatusPayoutPending = "payout_pending"
)

const (
	PayoutStatusRequested = "requested"
	PayoutStatusApproved  = "approved"
	PayoutStatusCompleted = "completed"
)

// saleTransitions is the normal lifecycle of a sale. Admin status
// endpoints deliberately bypass it: an admin overwrite always wins, so a
// rejected sale can be re-approved. The payout workflow does consult it.
var saleTransitions = map[string][]string{
	SaleStatusPending:   {SaleStatusConfirmed, SaleStatusRejected},
	SaleStatusConfirmed: {SaleStatusPayoutPending},
}

func CanTransition(from, to string) bool {
	for _, next := range saleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Int64Array stores a list of row ids as a JSON column. Postgres hands it
// back as bytes, SQLite as a string, so Scan accepts both.
type Int64Array []int64

func (a *Int64Array) Scan(value interface{}) error {
	if value == nil {
		*a = Int64Array{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("failed to scan Int64Array: %v", value)
	}
}

func (a Int64Array) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Sale struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID   int64      `gorm:"index;not null" json:"agent_id"`
	SaleCount int64      `gorm:"not null" json:"sale_count"`
	SaleNames string     `gorm:"type:text;not null" json:"sale_names"`
	Status    string     `gorm:"index;not null;default:pending" json:"status"`
	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type PayoutRequest struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID         int64      `gorm:"index;not null" json:"agent_id"`
	AmountRequested string     `gorm:"type:decimal(18,2);not null" json:"amount_requested"`
	Status          string     `gorm:"index;not null;default:requested" json:"status"`
	SalesData       string     `gorm:"type:text" json:"sales_data"`
	IncludedSaleIDs Int64Array `gorm:"type:text" json:"included_sale_ids"`
	CreatedAt       *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

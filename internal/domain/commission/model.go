// Package commission resolves commission agents and spreads commission over sold units.
package commission

import (
	"time"

	"batteryshop/internal/core/id"
	"batteryshop/internal/core/types"
)

// Agent is a third party paid for referring sales. MobileNumber is the identity key.
type Agent struct {
	ID                  id.ID       `db:"id" json:"id"`
	Name                string      `db:"name" json:"name"`
	MobileNumber        string      `db:"mobile_number" json:"mobileNumber"`
	TotalCommissionPaid types.Money `db:"total_commission_paid" json:"totalCommissionPaid"`
	CreatedAt           time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updatedAt"`
}

// Ref identifies the agent of a sale: by id, or by name and mobile number.
type Ref struct {
	AgentID *id.ID
	Name    string
	Mobile  string
}

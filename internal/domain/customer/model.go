// Package customer resolves the purchasing customer of a sale.
package customer

import (
	"strings"
	"time"
	"unicode"

	"batteryshop/internal/core/id"
)

// Channel is the sale channel. It fixes the classification of a newly created customer.
type Channel string

const (
	ChannelRetail    Channel = "retail"
	ChannelWholesale Channel = "wholesale"
)

// Valid reports whether ch is a known channel.
func (ch Channel) Valid() bool {
	return ch == ChannelRetail || ch == ChannelWholesale
}

// Classification is set once, when the customer is created.
type Classification string

const (
	ClassificationBusiness   Classification = "business"
	ClassificationIndividual Classification = "individual"
)

// ClassificationFor returns the classification a new customer gets for the channel.
func ClassificationFor(ch Channel) Classification {
	if ch == ChannelWholesale {
		return ClassificationBusiness
	}
	return ClassificationIndividual
}

// RoleCustomer is the identity role of shop customers. Staff identities never match.
const RoleCustomer = "customer"

// SyntheticEmailDomain is used for customers who did not give an email address.
const SyntheticEmailDomain = "customer.local"

// Customer is a customer identity joined with its profile.
type Customer struct {
	ID                id.ID          `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Email             string         `db:"email" json:"email"`
	Phone             string         `db:"phone" json:"phone"`
	Role              string         `db:"role" json:"-"`
	PasswordHash      string         `db:"password_hash" json:"-"`
	MustResetPassword bool           `db:"must_reset_password" json:"-"`
	Classification    Classification `db:"classification" json:"classification"`

	CompanyName     *string `db:"company_name" json:"companyName,omitempty"`
	GSTNumber       *string `db:"gst_number" json:"gstNumber,omitempty"`
	BusinessAddress *string `db:"business_address" json:"businessAddress,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// BusinessDetails are optional B2B fields. Blank values never overwrite stored ones.
type BusinessDetails struct {
	CompanyName     string `json:"companyName,omitempty"`
	GSTNumber       string `json:"gstNumber,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
}

// IsEmpty reports whether every field is blank.
func (b BusinessDetails) IsEmpty() bool {
	return strings.TrimSpace(b.CompanyName) == "" &&
		strings.TrimSpace(b.GSTNumber) == "" &&
		strings.TrimSpace(b.BusinessAddress) == ""
}

// ApplyTo merges b into c keeping previous values where b is blank.
func (b BusinessDetails) ApplyTo(c *Customer) {
	keep := func(dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = &v
		}
	}
	keep(&c.CompanyName, b.CompanyName)
	keep(&c.GSTNumber, b.GSTNumber)
	keep(&c.BusinessAddress, b.BusinessAddress)
}

// SyntheticEmail derives a stable placeholder address from a mobile number.
func SyntheticEmail(mobile string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, mobile)
	if digits == "" {
		digits = strings.TrimSpace(mobile)
	}
	return digits + "@" + SyntheticEmailDomain
}

// IsSyntheticEmail reports whether email was produced by SyntheticEmail.
func IsSyntheticEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+SyntheticEmailDomain)
}

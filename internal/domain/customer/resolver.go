package customer

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/core/phone"
	"batteryshop/pkg/logger"
)

// Identity is what a sale knows about its customer.
type Identity struct {
	Name     string
	Email    string
	Phone    string
	Channel  Channel
	Business BusinessDetails
}

// Resolver finds or creates the customer of a sale.
type Resolver struct {
	repo     Repository
	hashCost int
	now      func() time.Time
}

// NewResolver creates a new resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithHashCost sets the bcrypt cost for default passwords. Out-of-range costs are ignored.
func (r *Resolver) WithHashCost(cost int) *Resolver {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		r.hashCost = cost
	}
	return r
}

// Resolve returns the customer matching the identity by email (case-insensitive), then by
// phone, creating one when neither matches. created reports a new customer.
// The phone is reduced to its 10 national digits before any lookup, so "+91 98765 43210"
// and "9876543210" are the same customer. A matched customer keeps its classification.
func (r *Resolver) Resolve(ctx context.Context, in Identity) (c *Customer, created bool, err error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateIdentity(in); err != nil {
		return nil, false, err
	}
	if in.Phone, err = NormalizePhone(in.Phone); err != nil {
		return nil, false, err
	}

	byEmail := true
	c, err = r.repo.FindByEmail(ctx, in.Email)
	if apperror.IsNotFound(err) {
		byEmail = false
		c, err = r.repo.FindByPhone(ctx, in.Phone)
	}
	switch {
	case err == nil:
		if err := r.refresh(ctx, c, in, byEmail); err != nil {
			return nil, false, err
		}
		return c, false, nil
	case !apperror.IsNotFound(err):
		return nil, false, err
	}

	c, err = r.create(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// NormalizePhone reduces a customer mobile number to its 10 national digits.
func NormalizePhone(raw string) (string, error) {
	normalized, err := phone.Normalize(raw)
	if err != nil {
		return "", apperror.NewValidation("customer mobile must have exactly 10 digits").
			WithDetail("field", "customerMobile").
			WithDetail("value", raw)
	}
	return normalized, nil
}

func validateIdentity(in Identity) error {
	switch {
	case in.Name == "":
		return apperror.NewValidation("customer name is required").WithDetail("field", "customerName")
	case in.Phone == "":
		return apperror.NewValidation("customer mobile is required").WithDetail("field", "customerMobile")
	case in.Email == "":
		return apperror.NewValidation("customer email is required").WithDetail("field", "customerEmail")
	}
	return nil
}

// refresh updates display fields of a matched customer.
func (r *Resolver) refresh(ctx context.Context, c *Customer, in Identity, byEmail bool) error {
	changed := false

	if c.Name != in.Name {
		c.Name = in.Name
		changed = true
	}

	if byEmail && c.Phone != in.Phone {
		// The phone is an identity key too; only take it over when nobody else holds it.
		_, err := r.repo.FindByPhone(ctx, in.Phone)
		switch {
		case apperror.IsNotFound(err):
			c.Phone = in.Phone
			changed = true
		case err != nil:
			return err
		default:
			logger.Warn(ctx, "phone belongs to another customer, keeping stored phone",
				"customer_id", c.ID)
		}
	}

	// A customer first seen without an email gets the real one once it is known.
	if !byEmail && IsSyntheticEmail(c.Email) && !IsSyntheticEmail(in.Email) {
		c.Email = in.Email
		changed = true
	}

	if changed {
		c.UpdatedAt = r.now()
		if err := r.repo.UpdateContact(ctx, c); err != nil {
			return err
		}
	}

	if !in.Business.IsEmpty() {
		if err := r.repo.MergeBusinessProfile(ctx, c.ID, in.Business); err != nil {
			return err
		}
		in.Business.ApplyTo(c)
	}
	return nil
}

func (r *Resolver) create(ctx context.Context, in Identity) (*Customer, error) {
	// Default credential for first login; the customer must reset it.
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Phone), r.hashCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := r.now()
	c := &Customer{
		ID:                id.New(),
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		Role:              RoleCustomer,
		PasswordHash:      string(hash),
		MustResetPassword: true,
		Classification:    ClassificationFor(in.Channel),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	in.Business.ApplyTo(c)

	if err := r.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.Info(ctx, "customer created",
		"customer_id", c.ID,
		"classification", c.Classification)
	return c, nil
}

package farm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// CustomerInput carries the editable customer fields. A nil IsActive means
// active on create and unchanged on update.
type CustomerInput struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	IsActive *bool
}

// CustomerFilter narrows ListCustomers.
type CustomerFilter struct {
	ActiveOnly bool
	Search     string
}

// CreateCustomer registers a customer.
func (s *Service) CreateCustomer(ctx context.Context, actor access.Actor, in CustomerInput) (models.Customer, error) {
	if err := actor.Require(access.CreateCustomer); err != nil {
		return models.Customer{}, err
	}
	customer := models.Customer{ID: s.newID(), IsActive: true}
	if err := applyCustomer(&customer, in); err != nil {
		return models.Customer{}, err
	}

	if err := s.repo.InsertCustomer(ctx, customer); err != nil {
		return models.Customer{}, apperror.NewInternal(fmt.Errorf("insert customer: %w", err))
	}
	s.logger.Info("customer created", zap.String("customer_id", customer.ID))
	return customer, nil
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, actor access.Actor, id string) (models.Customer, error) {
	if err := actor.Require(access.ViewCustomers); err != nil {
		return models.Customer{}, err
	}
	customer, err := s.repo.FindCustomer(ctx, id)
	if err != nil {
		return models.Customer{}, lookupError(err, "customer", id)
	}
	return customer, nil
}

// ListCustomers returns customers by name. Search matches name, phone or
// email regardless of case.
func (s *Service) ListCustomers(ctx context.Context, actor access.Actor, filter CustomerFilter) ([]models.Customer, error) {
	if err := actor.Require(access.ViewCustomers); err != nil {
		return nil, err
	}
	list, err := s.repo.ListCustomers(ctx, repository.CustomerFilter{
		ActiveOnly: filter.ActiveOnly,
		Search:     strings.TrimSpace(filter.Search),
	})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list customers: %w", err))
	}
	return list, nil
}

// UpdateCustomer replaces the customer fields.
func (s *Service) UpdateCustomer(ctx context.Context, actor access.Actor, id string, in CustomerInput) (models.Customer, error) {
	if err := actor.Require(access.EditCustomer); err != nil {
		return models.Customer{}, err
	}
	customer, err := s.repo.FindCustomer(ctx, id)
	if err != nil {
		return models.Customer{}, lookupError(err, "customer", id)
	}
	if err := applyCustomer(&customer, in); err != nil {
		return models.Customer{}, err
	}
	if err := s.repo.ReplaceCustomer(ctx, customer); err != nil {
		return models.Customer{}, writeError(err, "replace", "customer", id)
	}
	return customer, nil
}

// DeleteCustomer removes a customer. Sales keep their customer id and are
// listed without a name afterwards.
func (s *Service) DeleteCustomer(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteCustomer); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return writeError(err, "delete", "customer", id)
	}
	s.logger.Info("customer deleted", zap.String("customer_id", id), zap.String("user_id", actor.UserID))
	return nil
}

func applyCustomer(c *models.Customer, in CustomerInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperror.NewValidation("name is required")
	}
	c.Name = name
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return nil
}

package partner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
	"github.com/promissory/backend/internal/domain/partner"
	"github.com/promissory/backend/internal/domain/shared"
)

// DirectoryCache memoizes debtor lookups by customer id. Entries are
// invalidated explicitly when the customer changes; there is no ambient
// global state behind it.
type DirectoryCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (notesapp.DebtorInfo, bool)
	Set(ctx context.Context, customerID uuid.UUID, info notesapp.DebtorInfo)
	Invalidate(ctx context.Context, customerID uuid.UUID)
}

// CustomerService manages the customer directory and serves debtor lookups
// for the note engine.
type CustomerService struct {
	repo  partner.CustomerRepository
	cache DirectoryCache
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(repo partner.CustomerRepository, cache DirectoryCache) *CustomerService {
	return &CustomerService{repo: repo, cache: cache}
}

// CustomerInput carries the directory fields for create and update
type CustomerInput struct {
	Name     string
	IDNumber string
	Phone    string
	Address  string
	Remark   string
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (*partner.Customer, error) {
	customer, err := partner.NewCustomer(input.Name, input.IDNumber, input.Phone, input.Address)
	if err != nil {
		return nil, err
	}
	if input.Remark != "" {
		customer.SetRemark(input.Remark)
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to persist customer: %w", err)
	}
	return customer, nil
}

// Update changes a customer's directory fields and invalidates the cache
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*partner.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(input.Name, input.IDNumber, input.Phone, input.Address); err != nil {
		return nil, err
	}
	customer.SetRemark(input.Remark)
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to persist customer: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return customer, nil
}

// Get returns a customer by id
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of customers
func (s *CustomerService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[partner.Customer], error) {
	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[partner.Customer]{}, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[partner.Customer]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Delete removes a customer and invalidates the cache
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// ResolveDebtor implements the note engine's DebtorDirectory boundary,
// memoizing through the directory cache.
func (s *CustomerService) ResolveDebtor(ctx context.Context, customerID uuid.UUID) (notesapp.DebtorInfo, error) {
	if info, ok := s.cache.Get(ctx, customerID); ok {
		return info, nil
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return notesapp.DebtorInfo{}, err
	}
	info := notesapp.DebtorInfo{
		Name:     customer.Name,
		IDNumber: customer.IDNumber,
		Address:  customer.Address,
	}
	s.cache.Set(ctx, customerID, info)
	return info, nil
}

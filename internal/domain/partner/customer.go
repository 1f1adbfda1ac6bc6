package partner

import (
	"github.com/promissory/backend/internal/domain/shared"
)

// Customer is the aggregate root for a debtor in the customer directory.
// The note engine consumes it read-only to prefill debtor fields.
type Customer struct {
	shared.BaseAggregateRoot
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Remark   string `json:"remark"`
}

// NewCustomer creates a new customer
func NewCustomer(name, idNumber, phone, address string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		IDNumber:          idNumber,
		Phone:             phone,
		Address:           address,
	}, nil
}

// Update changes the customer's directory fields
func (c *Customer) Update(name, idNumber, phone, address string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	c.Name = name
	c.IDNumber = idNumber
	c.Phone = phone
	c.Address = address
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetRemark sets the free-text remark
func (c *Customer) SetRemark(remark string) {
	c.Remark = remark
	c.Touch()
	c.IncrementVersion()
}

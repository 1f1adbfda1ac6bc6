package models

import (
	"github.com/promissory/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null;index"`
	IDNumber string `gorm:"type:varchar(50);index"`
	Phone    string `gorm:"type:varchar(30)"`
	Address  string `gorm:"type:varchar(500)"`
	Remark   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		Name:     m.Name,
		IDNumber: m.IDNumber,
		Phone:    m.Phone,
		Address:  m.Address,
		Remark:   m.Remark,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.IDNumber = c.IDNumber
	m.Phone = c.Phone
	m.Address = c.Address
	m.Remark = c.Remark
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

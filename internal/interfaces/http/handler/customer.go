package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/promissory/backend/internal/application/partner"
	"github.com/promissory/backend/internal/domain/partner"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/promissory/backend/internal/interfaces/http/dto"
	"github.com/promissory/backend/internal/interfaces/http/middleware"
)

// CustomerHandler handles customer directory API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// RegisterRoutes registers all customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/customers")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.GetByID)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}
}

// CustomerBody represents the writable fields of a customer
type CustomerBody struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	IDNumber string `json:"id_number" binding:"max=50"`
	Phone    string `json:"phone" binding:"max=50"`
	Address  string `json:"address" binding:"max=500"`
	Remark   string `json:"remark" binding:"max=500"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IDNumber  string    `json:"id_number"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Remark    string    `json:"remark,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func customerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		IDNumber:  c.IDNumber,
		Phone:     c.Phone,
		Address:   c.Address,
		Remark:    c.Remark,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (b CustomerBody) toInput() partnerapp.CustomerInput {
	return partnerapp.CustomerInput{
		Name:     b.Name,
		IDNumber: b.IDNumber,
		Phone:    b.Phone,
		Address:  b.Address,
		Remark:   b.Remark,
	}
}

// Create adds a new customer to the directory
func (h *CustomerHandler) Create(c *gin.Context) {
	var body CustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), body.toInput())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, customerResponse(customer))
}

// GetByID retrieves a customer by ID
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customerResponse(customer))
}

// List retrieves a paginated list of customers with optional search
func (h *CustomerHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Search:   listReq.Search,
	}

	result, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]CustomerResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, customerResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}

// Update changes a customer's directory fields
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var body CustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, body.toInput())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customerResponse(customer))
}

// Delete removes a customer from the directory
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

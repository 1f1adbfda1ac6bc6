package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
	"github.com/promissory/backend/internal/domain/notes"
	"github.com/promissory/backend/internal/interfaces/http/dto"
	"github.com/promissory/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// NoteHandler handles promissory note API endpoints
type NoteHandler struct {
	BaseHandler
	noteService       *notesapp.NoteService
	attachmentService *notesapp.AttachmentService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService *notesapp.NoteService, attachmentService *notesapp.AttachmentService) *NoteHandler {
	return &NoteHandler{
		noteService:       noteService,
		attachmentService: attachmentService,
	}
}

// RegisterRoutes registers all note routes
func (h *NoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/notes")
	{
		group.POST("/preview", h.Preview)
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.GetByID)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
		group.POST("/:id/installments/:installmentId/toggle", h.ToggleInstallment)
		group.POST("/:id/default", h.MarkDefaulted)
		group.POST("/:id/image", h.AttachImage)
		group.POST("/:id/image/upload-ticket", h.RequestImageUpload)
	}
}

// ScheduleBody carries the schedule generation parameters shared by
// preview, create and update requests
type ScheduleBody struct {
	TotalAmount    float64 `json:"total_amount"`
	IssueDate      string  `json:"issue_date" binding:"required"`
	IsLegacy       bool    `json:"is_legacy"`
	PaidAmount     float64 `json:"paid_amount"`
	SplitMode      string  `json:"split_mode" binding:"required"`
	Count          int     `json:"count"`
	PerInstallment float64 `json:"per_installment"`
	Interval       string  `json:"interval" binding:"required"`
}

func (b ScheduleBody) toRequest() (notesapp.ScheduleRequest, error) {
	issued, err := parseDate(b.IssueDate)
	if err != nil {
		return notesapp.ScheduleRequest{}, err
	}
	return notesapp.ScheduleRequest{
		TotalAmount:    decimal.NewFromFloat(b.TotalAmount),
		IssueDate:      issued,
		IsLegacy:       b.IsLegacy,
		PaidAmount:     decimal.NewFromFloat(b.PaidAmount),
		SplitMode:      b.SplitMode,
		Count:          b.Count,
		PerInstallment: decimal.NewFromFloat(b.PerInstallment),
		Interval:       b.Interval,
	}, nil
}

// CreateNoteRequest represents a request to create a new note
type CreateNoteRequest struct {
	CustomerID string       `json:"customer_id" binding:"required,uuid"`
	Schedule   ScheduleBody `json:"schedule" binding:"required"`
	Remark     string       `json:"remark" binding:"max=500"`
}

// UpdateNoteRequest represents a request to update a note. All fields are
// optional; schedule-affecting fields trigger regeneration, which is
// refused for notes with recorded payments unless confirm_regeneration
// is set.
type UpdateNoteRequest struct {
	IssueDate           *string  `json:"issue_date"`
	PaidAmount          *float64 `json:"paid_amount"`
	SplitMode           *string  `json:"split_mode"`
	Count               *int     `json:"count"`
	PerInstallment      *float64 `json:"per_installment"`
	Interval            *string  `json:"interval"`
	Remark              *string  `json:"remark" binding:"omitempty,max=500"`
	ConfirmRegeneration bool     `json:"confirm_regeneration"`
}

// MarkDefaultedRequest represents a request to mark a note defaulted
type MarkDefaultedRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AttachImageRequest represents a request to attach a scanned note image
type AttachImageRequest struct {
	URL string `json:"url" binding:"required,url,max=2000"`
}

// RequestImageUploadRequest represents a request for a presigned upload URL
type RequestImageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// InstallmentResponse represents one installment in API responses
type InstallmentResponse struct {
	ID            string `json:"id"`
	SequenceIndex int    `json:"sequence_index"`
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
	Status        string `json:"status"`
	Description   string `json:"description"`
}

// NoteResponse represents a promissory note in API responses
type NoteResponse struct {
	ID              string                `json:"id"`
	CustomerID      string                `json:"customer_id"`
	DebtorName      string                `json:"debtor_name"`
	DebtorIDNumber  string                `json:"debtor_id_number"`
	DebtorAddress   string                `json:"debtor_address"`
	TotalAmount     string                `json:"total_amount"`
	RemainingAmount string                `json:"remaining_amount"`
	IssueDate       string                `json:"issue_date"`
	IsLegacy        bool                  `json:"is_legacy"`
	PaidAmount      string                `json:"paid_amount"`
	SplitMode       string                `json:"split_mode"`
	Count           int                   `json:"count,omitempty"`
	PerInstallment  string                `json:"per_installment,omitempty"`
	Interval        string                `json:"interval"`
	Status          string                `json:"status"`
	Installments    []InstallmentResponse `json:"installments"`
	Remark          string                `json:"remark,omitempty"`
	ImageURL        string                `json:"image_url,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	DefaultedAt     *time.Time            `json:"defaulted_at,omitempty"`
	DefaultReason   string                `json:"default_reason,omitempty"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// UploadTicketResponse represents a presigned upload grant
type UploadTicketResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectURL string    `json:"object_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// perInstallmentField renders the fixed per-installment amount for by-amount
// policies and stays empty otherwise, so by-count responses omit the field.
func perInstallmentField(p notes.SplitPolicy) string {
	if p.Mode() != "BY_AMOUNT" {
		return ""
	}
	return p.PerInstallment().StringFixed(2)
}

func installmentResponse(ins notes.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:            ins.ID.String(),
		SequenceIndex: ins.SequenceIndex,
		Amount:        ins.Amount.StringFixed(2),
		DueDate:       ins.DueDate.Format("2006-01-02"),
		Status:        ins.Status.String(),
		Description:   ins.Description,
	}
}

func noteResponse(n *notes.PromissoryNote) NoteResponse {
	installments := make([]InstallmentResponse, 0, len(n.Installments))
	for _, ins := range n.Installments {
		installments = append(installments, installmentResponse(ins))
	}
	return NoteResponse{
		ID:              n.ID.String(),
		CustomerID:      n.CustomerID.String(),
		DebtorName:      n.DebtorName,
		DebtorIDNumber:  n.DebtorIDNumber,
		DebtorAddress:   n.DebtorAddress,
		TotalAmount:     n.TotalAmount.StringFixed(2),
		RemainingAmount: n.RemainingAmount().StringFixed(2),
		IssueDate:       n.IssueDate.Format("2006-01-02"),
		IsLegacy:        n.IsLegacy,
		PaidAmount:      n.PaidAmount.StringFixed(2),
		SplitMode:       n.SplitPolicy.Mode(),
		Count:           n.SplitPolicy.Count(),
		PerInstallment:  perInstallmentField(n.SplitPolicy),
		Interval:        n.Interval.String(),
		Status:          string(n.Status),
		Installments:    installments,
		Remark:          n.Remark,
		ImageURL:        n.ImageURL,
		CompletedAt:     n.CompletedAt,
		DefaultedAt:     n.DefaultedAt,
		DefaultReason:   n.DefaultReason,
		Version:         n.Version,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
}

// parseDate accepts a bare date or an RFC3339 timestamp
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Preview generates a schedule without persisting anything
func (h *NoteHandler) Preview(c *gin.Context) {
	var body ScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	req, err := body.toRequest()
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidIssueDate, "Invalid issue date format, expected YYYY-MM-DD")
		return
	}

	installments, err := h.noteService.PreviewSchedule(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := make([]InstallmentResponse, 0, len(installments))
	for _, ins := range installments {
		resp = append(resp, installmentResponse(ins))
	}
	h.Success(c, resp)
}

// Create creates a new promissory note with its installment schedule
func (h *NoteHandler) Create(c *gin.Context) {
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	schedule, err := req.Schedule.toRequest()
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidIssueDate, "Invalid issue date format, expected YYYY-MM-DD")
		return
	}

	note, err := h.noteService.CreateNote(c.Request.Context(), notesapp.CreateNoteRequest{
		CustomerID: customerID,
		Schedule:   schedule,
		Remark:     req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, noteResponse(note))
}

// GetByID retrieves a note with its full installment schedule
func (h *NoteHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	note, err := h.noteService.GetNote(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, noteResponse(note))
}

// List retrieves a paginated list of notes with optional filtering
func (h *NoteHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := notes.NoteFilter{}
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize
	filter.OrderBy = listReq.OrderBy
	filter.OrderDir = listReq.OrderDir
	filter.Search = listReq.Search

	if v := c.Query("customer_id"); v != "" {
		customerID, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id filter")
			return
		}
		filter.CustomerID = &customerID
	}
	if v := c.Query("status"); v != "" {
		status := notes.NoteStatus(v)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid status filter")
			return
		}
		filter.Status = &status
	}
	if v := c.Query("is_legacy"); v != "" {
		isLegacy := v == "true"
		filter.IsLegacy = &isLegacy
	}
	if v := c.Query("issued_from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			h.BadRequest(c, "Invalid issued_from date")
			return
		}
		filter.IssuedFrom = &from
	}
	if v := c.Query("issued_to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			h.BadRequest(c, "Invalid issued_to date")
			return
		}
		filter.IssuedTo = &to
	}

	result, err := h.noteService.ListNotes(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]NoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, noteResponse(&result.Items[i]))
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}

// Update edits a note. Schedule-affecting changes regenerate the
// installment schedule.
func (h *NoteHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	appReq := notesapp.UpdateNoteRequest{
		Remark:              req.Remark,
		SplitMode:           req.SplitMode,
		Count:               req.Count,
		Interval:            req.Interval,
		ConfirmRegeneration: req.ConfirmRegeneration,
	}
	if req.IssueDate != nil {
		issued, err := parseDate(*req.IssueDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidIssueDate, "Invalid issue date format, expected YYYY-MM-DD")
			return
		}
		appReq.IssueDate = &issued
	}
	if req.PaidAmount != nil {
		paid := decimal.NewFromFloat(*req.PaidAmount)
		appReq.PaidAmount = &paid
	}
	if req.PerInstallment != nil {
		per := decimal.NewFromFloat(*req.PerInstallment)
		appReq.PerInstallment = &per
	}

	note, err := h.noteService.UpdateNote(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, noteResponse(note))
}

// Delete removes a note and its installments
func (h *NoteHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ToggleInstallment flips an installment between paid and unpaid, and
// returns the note with its refreshed status
func (h *NoteHandler) ToggleInstallment(c *gin.Context) {
	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}
	installmentID, err := uuid.Parse(c.Param("installmentId"))
	if err != nil {
		h.BadRequest(c, "Invalid installment ID format")
		return
	}

	note, err := h.noteService.ToggleInstallment(c.Request.Context(), noteID, installmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, noteResponse(note))
}

// MarkDefaulted marks a note as defaulted with an operator-supplied reason
func (h *NoteHandler) MarkDefaulted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	var req MarkDefaultedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	note, err := h.noteService.MarkDefaulted(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, noteResponse(note))
}

// AttachImage records the URL of a scanned note image
func (h *NoteHandler) AttachImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	var req AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	note, err := h.noteService.AttachImage(c.Request.Context(), id, req.URL)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, noteResponse(note))
}

// RequestImageUpload issues a presigned upload grant for a note image.
// The note must exist; the returned object URL is attached with a
// subsequent AttachImage call once the client finishes uploading.
func (h *NoteHandler) RequestImageUpload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid note ID format")
		return
	}

	var req RequestImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if _, err := h.noteService.GetNote(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	ticket, err := h.attachmentService.RequestUpload(c.Request.Context(), id, req.ContentType)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, UploadTicketResponse{
		UploadURL: ticket.UploadURL,
		ObjectURL: ticket.ObjectURL,
		ExpiresAt: ticket.ExpiresAt,
	})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
	"github.com/promissory/backend/internal/domain/notes"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/promissory/backend/internal/interfaces/http/dto"
	"github.com/promissory/backend/internal/interfaces/http/middleware"
	"github.com/promissory/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeNoteRepo struct {
	notes map[uuid.UUID]*notes.PromissoryNote
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[uuid.UUID]*notes.PromissoryNote)}
}

func cloneNote(n *notes.PromissoryNote) *notes.PromissoryNote {
	c := *n
	c.Installments = make([]notes.Installment, len(n.Installments))
	copy(c.Installments, n.Installments)
	return &c
}

func (r *fakeNoteRepo) FindByID(_ context.Context, id uuid.UUID) (*notes.PromissoryNote, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneNote(n), nil
}

func (r *fakeNoteRepo) FindAll(_ context.Context, filter notes.NoteFilter) ([]notes.PromissoryNote, error) {
	var out []notes.PromissoryNote
	for _, n := range r.notes {
		if filter.Status != nil && n.Status != *filter.Status {
			continue
		}
		out = append(out, *cloneNote(n))
	}
	return out, nil
}

func (r *fakeNoteRepo) Count(ctx context.Context, filter notes.NoteFilter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

func (r *fakeNoteRepo) Save(_ context.Context, note *notes.PromissoryNote) error {
	r.notes[note.ID] = cloneNote(note)
	return nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.notes[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *fakeNoteRepo) SetInstallmentStatus(_ context.Context, noteID, installmentID uuid.UUID, from, to notes.InstallmentStatus, noteStatus notes.NoteStatus) error {
	n, ok := r.notes[noteID]
	if !ok {
		return shared.ErrNotFound
	}
	for i := range n.Installments {
		if n.Installments[i].ID == installmentID {
			if n.Installments[i].Status != from {
				return shared.ErrConcurrencyConflict
			}
			n.Installments[i].Status = to
			n.Status = noteStatus
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeDirectory struct {
	known map[uuid.UUID]notesapp.DebtorInfo
}

func (d *fakeDirectory) ResolveDebtor(_ context.Context, customerID uuid.UUID) (notesapp.DebtorInfo, error) {
	info, ok := d.known[customerID]
	if !ok {
		return notesapp.DebtorInfo{}, shared.ErrNotFound
	}
	return info, nil
}

type fakeStorage struct{}

func (s *fakeStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.test/upload/" + key, time.Now().Add(expiresIn), nil
}

func (s *fakeStorage) ObjectURL(key string) string {
	return "https://storage.test/" + key
}

type noteTestEnv struct {
	engine     *gin.Engine
	repo       *fakeNoteRepo
	customerID uuid.UUID
}

func newNoteTestEnv(t *testing.T) *noteTestEnv {
	t.Helper()

	repo := newFakeNoteRepo()
	customerID := uuid.New()
	directory := &fakeDirectory{known: map[uuid.UUID]notesapp.DebtorInfo{
		customerID: {Name: "Wang Lei", IDNumber: "110101199001011234", Address: "12 Canal Road"},
	}}

	noteService := notesapp.NewNoteService(repo, directory)
	attachmentService := notesapp.NewAttachmentService(&fakeStorage{}, 15*time.Minute)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).
		Register(NewNoteHandler(noteService, attachmentService)).
		Setup()

	return &noteTestEnv{engine: engine, repo: repo, customerID: customerID}
}

func (e *noteTestEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func scheduleBody(total float64, count int) map[string]any {
	return map[string]any{
		"total_amount": total,
		"issue_date":   "2025-03-15",
		"split_mode":   "BY_COUNT",
		"count":        count,
		"interval":     "MONTHLY",
	}
}

// createNote creates a note through the API and returns its decoded response
func (e *noteTestEnv) createNote(t *testing.T, total float64, count int) map[string]any {
	t.Helper()

	w, resp := e.do(t, http.MethodPost, "/api/v1/notes", map[string]any{
		"customer_id": e.customerID.String(),
		"schedule":    scheduleBody(total, count),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp.Data.(map[string]any)
}

func noteInstallments(data map[string]any) []map[string]any {
	raw := data["installments"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		out = append(out, item.(map[string]any))
	}
	return out
}

func TestNoteHandler_Preview(t *testing.T) {
	env := newNoteTestEnv(t)

	t.Run("even split", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/preview", scheduleBody(300, 3))
		require.Equal(t, http.StatusOK, w.Code)

		items := resp.Data.([]any)
		require.Len(t, items, 3)
		first := items[0].(map[string]any)
		assert.Equal(t, "100.00", first["amount"])
		assert.Equal(t, "2025-03-15", first["due_date"])
		assert.Equal(t, "PENDING", first["status"])
	})

	t.Run("unsupported interval", func(t *testing.T) {
		body := scheduleBody(300, 3)
		body["interval"] = "DAILY"
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/preview", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInterval, resp.Error.Code)
	})

	t.Run("missing fields rejected by binding", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/preview", map[string]any{"total_amount": 300})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})
}

func TestNoteHandler_Create(t *testing.T) {
	env := newNoteTestEnv(t)

	t.Run("resolves debtor and persists schedule", func(t *testing.T) {
		data := env.createNote(t, 300, 3)

		assert.Equal(t, "Wang Lei", data["debtor_name"])
		assert.Equal(t, "110101199001011234", data["debtor_id_number"])
		assert.Equal(t, "ACTIVE", data["status"])
		assert.Equal(t, "300.00", data["total_amount"])
		assert.Equal(t, "BY_COUNT", data["split_mode"])
		assert.Equal(t, "MONTHLY", data["interval"])
		assert.Len(t, noteInstallments(data), 3)

		id := uuid.MustParse(data["id"].(string))
		assert.Contains(t, env.repo.notes, id)
	})

	t.Run("unknown customer", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes", map[string]any{
			"customer_id": uuid.New().String(),
			"schedule":    scheduleBody(300, 3),
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("empty schedule", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes", map[string]any{
			"customer_id": env.customerID.String(),
			"schedule":    scheduleBody(300, 0),
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeScheduleEmpty, resp.Error.Code)
	})

	t.Run("legacy paid amount equal to total", func(t *testing.T) {
		body := scheduleBody(300, 3)
		body["is_legacy"] = true
		body["paid_amount"] = 300.0
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes", map[string]any{
			"customer_id": env.customerID.String(),
			"schedule":    body,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidPaymentAmount, resp.Error.Code)
	})
}

func TestNoteHandler_GetByID(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 300, 3)

	t.Run("found", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes/"+data["id"].(string), nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := resp.Data.(map[string]any)
		assert.Equal(t, data["id"], got["id"])
		assert.Len(t, noteInstallments(got), 3)
	})

	t.Run("unknown id", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})
}

func TestNoteHandler_List(t *testing.T) {
	env := newNoteTestEnv(t)
	env.createNote(t, 300, 3)
	other := env.createNote(t, 200, 2)

	// Default the second note so status filtering has something to bite on
	w, _ := env.do(t, http.MethodPost, "/api/v1/notes/"+other["id"].(string)+"/default",
		map[string]any{"reason": "debtor unreachable"})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("all notes with meta", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
	})

	t.Run("status filter", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes?status=DEFAULTED", nil)
		require.Equal(t, http.StatusOK, w.Code)
		items := resp.Data.([]any)
		require.Len(t, items, 1)
		assert.Equal(t, other["id"], items[0].(map[string]any)["id"])
	})

	t.Run("invalid status filter", func(t *testing.T) {
		w, resp := env.do(t, http.MethodGet, "/api/v1/notes?status=BOGUS", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})
}

func TestNoteHandler_Update(t *testing.T) {
	t.Run("remark only preserves installments", func(t *testing.T) {
		env := newNoteTestEnv(t)
		data := env.createNote(t, 300, 3)
		before := noteInstallments(data)

		w, resp := env.do(t, http.MethodPut, "/api/v1/notes/"+data["id"].(string),
			map[string]any{"remark": "renegotiated by phone"})
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "renegotiated by phone", got["remark"])
		after := noteInstallments(got)
		require.Len(t, after, 3)
		for i := range after {
			assert.Equal(t, before[i]["id"], after[i]["id"])
		}
	})

	t.Run("issue date only reschedules with the stored policy", func(t *testing.T) {
		env := newNoteTestEnv(t)
		data := env.createNote(t, 300, 3)

		w, resp := env.do(t, http.MethodPut, "/api/v1/notes/"+data["id"].(string),
			map[string]any{"issue_date": "2025-06-01"})
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		after := noteInstallments(got)
		require.Len(t, after, 3)
		assert.Equal(t, "100.00", after[0]["amount"])
		assert.Equal(t, "2025-06-01", after[0]["due_date"])
		assert.Equal(t, "2025-07-01", after[1]["due_date"])
	})

	t.Run("reschedule with payments needs confirmation", func(t *testing.T) {
		env := newNoteTestEnv(t)
		data := env.createNote(t, 300, 3)
		noteID := data["id"].(string)
		firstInstallment := noteInstallments(data)[0]["id"].(string)

		w, _ := env.do(t, http.MethodPost,
			fmt.Sprintf("/api/v1/notes/%s/installments/%s/toggle", noteID, firstInstallment), nil)
		require.Equal(t, http.StatusOK, w.Code)

		reschedule := map[string]any{
			"split_mode": "BY_COUNT",
			"count":      4,
			"interval":   "WEEKLY",
			"issue_date": "2025-04-01",
		}

		w, resp := env.do(t, http.MethodPut, "/api/v1/notes/"+noteID, reschedule)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeRegenerationOverPaid, resp.Error.Code)

		reschedule["confirm_regeneration"] = true
		w, resp = env.do(t, http.MethodPut, "/api/v1/notes/"+noteID, reschedule)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := resp.Data.(map[string]any)
		fresh := noteInstallments(got)
		require.Len(t, fresh, 4)
		for _, ins := range fresh {
			assert.Equal(t, "PENDING", ins["status"])
		}
	})
}

func TestNoteHandler_ToggleInstallment(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 200, 2)
	noteID := data["id"].(string)
	installments := noteInstallments(data)

	toggle := func(installmentID string) (*httptest.ResponseRecorder, dto.Response) {
		return env.do(t, http.MethodPost,
			fmt.Sprintf("/api/v1/notes/%s/installments/%s/toggle", noteID, installmentID), nil)
	}

	t.Run("pay first installment", func(t *testing.T) {
		w, resp := toggle(installments[0]["id"].(string))
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "ACTIVE", got["status"])
		assert.Equal(t, "PAID", noteInstallments(got)[0]["status"])
	})

	t.Run("paying the last installment completes the note", func(t *testing.T) {
		w, resp := toggle(installments[1]["id"].(string))
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "COMPLETED", got["status"])
	})

	t.Run("unpaying reopens the note", func(t *testing.T) {
		w, resp := toggle(installments[1]["id"].(string))
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "ACTIVE", got["status"])
		assert.Equal(t, "PENDING", noteInstallments(got)[1]["status"])
	})

	t.Run("unknown installment", func(t *testing.T) {
		w, resp := toggle(uuid.New().String())
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestNoteHandler_MarkDefaulted(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 300, 3)
	noteID := data["id"].(string)

	t.Run("marks with reason", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/default",
			map[string]any{"reason": "debtor filed for bankruptcy"})
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "DEFAULTED", got["status"])
		assert.Equal(t, "debtor filed for bankruptcy", got["default_reason"])
		assert.NotNil(t, got["defaulted_at"])
	})

	t.Run("defaulted state is terminal", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/default",
			map[string]any{"reason": "again"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	})

	t.Run("reason is required", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/default", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestNoteHandler_Delete(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 300, 3)
	noteID := data["id"].(string)

	w, _ := env.do(t, http.MethodDelete, "/api/v1/notes/"+noteID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, resp := env.do(t, http.MethodGet, "/api/v1/notes/"+noteID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestNoteHandler_AttachImage(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 300, 3)
	noteID := data["id"].(string)

	t.Run("stores image URL", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/image",
			map[string]any{"url": "https://storage.test/notes/scan.png"})
		require.Equal(t, http.StatusOK, w.Code)

		got := resp.Data.(map[string]any)
		assert.Equal(t, "https://storage.test/notes/scan.png", got["image_url"])
	})

	t.Run("url is required", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/image", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestNoteHandler_RequestImageUpload(t *testing.T) {
	env := newNoteTestEnv(t)
	data := env.createNote(t, 300, 3)
	noteID := data["id"].(string)

	t.Run("issues upload ticket", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/image/upload-ticket",
			map[string]any{"content_type": "image/png"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := resp.Data.(map[string]any)
		assert.Contains(t, got["upload_url"], "https://storage.test/upload/notes/"+noteID+"/")
		assert.Contains(t, got["object_url"], "https://storage.test/notes/"+noteID+"/")
		assert.NotEmpty(t, got["expires_at"])
	})

	t.Run("rejects non-image content type", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+noteID+"/image/upload-ticket",
			map[string]any{"content_type": "application/pdf"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidContentType, resp.Error.Code)
	})

	t.Run("unknown note", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/notes/"+uuid.New().String()+"/image/upload-ticket",
			map[string]any{"content_type": "image/png"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
	partnerapp "github.com/promissory/backend/internal/application/partner"
	"github.com/promissory/backend/internal/domain/partner"
	"github.com/promissory/backend/internal/domain/shared"
	"github.com/promissory/backend/internal/interfaces/http/dto"
	"github.com/promissory/backend/internal/interfaces/http/middleware"
	"github.com/promissory/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	out := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.customers)), nil
}

func (r *fakeCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	clone := *c
	r.customers[c.ID] = &clone
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.customers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

type noopCache struct{}

func (noopCache) Get(_ context.Context, _ uuid.UUID) (notesapp.DebtorInfo, bool) {
	return notesapp.DebtorInfo{}, false
}
func (noopCache) Set(_ context.Context, _ uuid.UUID, _ notesapp.DebtorInfo) {}
func (noopCache) Invalidate(_ context.Context, _ uuid.UUID)                 {}

func newCustomerTestEngine() *gin.Engine {
	service := partnerapp.NewCustomerService(newFakeCustomerRepo(), noopCache{})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).
		Register(NewCustomerHandler(service)).
		Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestCustomerHandler_CRUD(t *testing.T) {
	engine := newCustomerTestEngine()

	w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/customers", map[string]any{
		"name":      "Chen Min",
		"id_number": "310101198803052468",
		"phone":     "13700001111",
		"address":   "5 Harbor Street",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := resp.Data.(map[string]any)
	customerID := created["id"].(string)
	assert.Equal(t, "Chen Min", created["name"])

	t.Run("get", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/customers/"+customerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Chen Min", resp.Data.(map[string]any)["name"])
	})

	t.Run("list with meta", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/customers?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("update", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPut, "/api/v1/customers/"+customerID, map[string]any{
			"name":    "Chen Min",
			"phone":   "13700002222",
			"address": "5 Harbor Street",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "13700002222", resp.Data.(map[string]any)["phone"])
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := doJSON(t, engine, http.MethodDelete, "/api/v1/customers/"+customerID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/customers/"+customerID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestCustomerHandler_Validation(t *testing.T) {
	engine := newCustomerTestEngine()

	t.Run("name is required", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/customers", map[string]any{
			"phone": "13700001111",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/customers/nope", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})
}

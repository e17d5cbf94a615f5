package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/middleware"
)

func TestHandle_Success(t *testing.T) {
	rw := response.New(logger.NewLogger("debug"))
	rec := httptest.NewRecorder()

	rw.Handle(rec, httptest.NewRequest(http.MethodGet, "/x", nil), map[string]string{"ok": "sim"}, nil, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":"sim"}`, rec.Body.String())
}

func TestHandle_MapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validação", apperror.NewValidationError("ruim"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflito", apperror.NewConflictErrorWithReason(apperror.ReasonJobAlreadyPaid, "pago"), http.StatusConflict, apperror.ReasonJobAlreadyPaid},
		{"interno esconde a causa", apperror.NewDBError("falha", errors.New("pq: senha do banco")), http.StatusInternalServerError, ""},
		{"erro não tipado", errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := response.New(logger.NewLogger("debug"))
			rec := httptest.NewRecorder()

			rw.Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body domain.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Code)
			if tt.category != "" {
				assert.Equal(t, tt.category, body.Category)
			}
			assert.NotContains(t, body.Message, "senha do banco")
		})
	}
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	_, err := response.Actor(req)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)

	req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{UserID: "u1", Role: domain.RoleClient}))
	actor, err := response.Actor(req)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "u1", Role: domain.RoleClient}, actor)

	req = req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{UserID: "u1", Role: domain.RoleClient, Admin: true}))
	actor, err = response.Actor(req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, actor.Role)
	assert.True(t, actor.IsAdmin())
}

func TestPagination(t *testing.T) {
	p, err := response.Pagination(httptest.NewRequest(http.MethodGet, "/x?page=3&limit=20", nil))
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Page: 3, Limit: 20}, p)

	_, err = response.Pagination(httptest.NewRequest(http.MethodGet, "/x?page=abc", nil))
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = response.Pagination(httptest.NewRequest(http.MethodGet, "/x?limit=-1", nil))
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = response.Pagination(httptest.NewRequest(http.MethodGet, "/x?page=9223372036854775807", nil))
	assert.IsType(t, &apperror.ValidationError{}, err)

	p, err = response.Pagination(httptest.NewRequest(http.MethodGet, "/x?page=1000000", nil))
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPage, p.Page)
}

func TestPathID(t *testing.T) {
	const id = "4b1f0c7e-0000-4000-8000-000000000001"

	got, err := response.PathID(mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil), map[string]string{"job_id": id}), "job_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = response.PathID(mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/x", nil), map[string]string{"job_id": "urn:uuid:" + id}), "job_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, raw := range []string{"", "j1", "not-a-uuid", id + "0", "'; DROP TABLE jobs; --"} {
		_, err := response.PathID(mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/jobs/x", nil), map[string]string{"job_id": raw}), "job_id")
		assert.IsType(t, &apperror.ValidationError{}, err, raw)
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/service"
	"cliniscribe/internal/sourcecheck"
)

// stubLetterService returns canned results so the handler layer can be tested
// without a store.
type stubLetterService struct {
	letter *domain.Letter
	rec    *domain.ProvenanceRecord
	err    error
}

func (s *stubLetterService) Create(context.Context, *service.CreateLetterInput) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) GetByID(context.Context, uuid.UUID) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) List(context.Context, int, int) ([]domain.Letter, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return []domain.Letter{*s.letter}, 1, nil
}
func (s *stubLetterService) Edit(context.Context, *service.EditLetterInput) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) SourceCheck(context.Context, uuid.UUID, float64) (*sourcecheck.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sourcecheck.Report{Coverage: 100, Valid: true}, nil
}
func (s *stubLetterService) VerifyValue(context.Context, uuid.UUID, string) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) VerifyAll(context.Context, uuid.UUID) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) DismissFlag(context.Context, uuid.UUID, string, string) (*domain.Letter, error) {
	return s.letter, s.err
}
func (s *stubLetterService) Approve(context.Context, uuid.UUID, string) (*domain.ProvenanceRecord, error) {
	return s.rec, s.err
}
func (s *stubLetterService) GetProvenance(context.Context, uuid.UUID) (*domain.ProvenanceRecord, error) {
	return s.rec, s.err
}
func (s *stubLetterService) RenderProvenanceReport(context.Context, uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "LETTER PROVENANCE REPORT\n", nil
}

func letterRouter(svc service.LetterService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewLetterHandler(svc)
	r := gin.New()
	r.GET("/letters/:id", h.Get)
	r.GET("/letters/:id/source-check", h.SourceCheck)
	r.POST("/letters/:id/flags/:flagId/dismiss", h.DismissFlag)
	r.POST("/letters/:id/approve", h.Approve)
	r.GET("/letters/:id/export", h.ExportLedger)
	return r
}

func stubLetter() *domain.Letter {
	return &domain.Letter{
		ID:        uuid.New(),
		Title:     "Clinic letter",
		Status:    domain.LetterStatusDraft,
		CreatedAt: time.Now().UTC(),
		Values: []domain.VerifiableValue{
			{ID: "v1", Category: "measurement", Name: "LVEF", Value: "55", Unit: "%"},
		},
	}
}

func TestGetLetterReturnsEnvelope(t *testing.T) {
	svc := &stubLetterService{letter: stubLetter()}
	r := letterRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/letters/"+svc.letter.ID.String(), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestGetLetterInvalidID(t *testing.T) {
	r := letterRouter(&stubLetterService{letter: stubLetter()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/letters/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
}

func TestGetLetterNotFound(t *testing.T) {
	r := letterRouter(&stubLetterService{err: domain.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/letters/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveBlockedMapsToConflict(t *testing.T) {
	r := letterRouter(&stubLetterService{err: domain.ErrApprovalBlocked})

	body := bytes.NewBufferString(`{"approved_by":"dr.jones"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/letters/"+uuid.NewString()+"/approve", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "APPROVAL_BLOCKED", resp.Error.Code)
}

func TestDismissFlagRequiresReason(t *testing.T) {
	r := letterRouter(&stubLetterService{letter: stubLetter()})

	body := bytes.NewBufferString(`{}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/letters/"+uuid.NewString()+"/flags/f1/dismiss", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSourceCheckRejectsBadThreshold(t *testing.T) {
	r := letterRouter(&stubLetterService{letter: stubLetter()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/letters/"+uuid.NewString()+"/source-check?threshold=150", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportLedgerStreamsCSV(t *testing.T) {
	svc := &stubLetterService{letter: stubLetter()}
	r := letterRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/letters/"+svc.letter.ID.String()+"/export", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Clinic_letter_")

	body := w.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}), "UTF-8 BOM first")
	assert.True(t, strings.Contains(string(body), "LVEF"))
}

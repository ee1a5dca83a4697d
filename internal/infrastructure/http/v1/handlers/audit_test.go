package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/audit"
	"stockyard/internal/infrastructure/http/v1/dto"
	"stockyard/internal/infrastructure/http/v1/middleware"
	"stockyard/internal/infrastructure/storage/postgres"
)

type fakeHistory struct {
	records       []postgres.AuditRecord
	gotSubject    string
	gotSubjectID  id.ID
	gotProductID  id.ID
	gotLimit      int
	subjectCalled bool
	productCalled bool
}

func (f *fakeHistory) SubjectHistory(ctx context.Context, subjectType string, subjectID id.ID, limit int) ([]postgres.AuditRecord, error) {
	f.subjectCalled = true
	f.gotSubject, f.gotSubjectID, f.gotLimit = subjectType, subjectID, limit
	return f.records, nil
}

func (f *fakeHistory) ProductHistory(ctx context.Context, productID id.ID, limit int) ([]postgres.AuditRecord, error) {
	f.productCalled = true
	f.gotProductID, f.gotLimit = productID, limit
	return f.records, nil
}

func newAuditRouter(source *fakeHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	handler := NewAuditHandler(NewBaseHandler(), source)
	router.GET("/audit/subjects/:type/:id", handler.SubjectHistory)
	router.GET("/audit/products/:id", handler.ProductHistory)
	return router
}

func TestAuditHandler_SubjectHistory(t *testing.T) {
	saleID := id.New()
	productID := id.New()
	source := &fakeHistory{records: []postgres.AuditRecord{{
		ID:          id.New(),
		Action:      audit.ActionSale,
		ProductID:   &productID,
		SubjectType: "sale",
		SubjectID:   saleID,
		ActorID:     id.New(),
		Description: "sold 3 bottles",
		CreatedAt:   time.Now().UTC(),
	}}}
	router := newAuditRouter(source)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit/subjects/sale/"+saleID.String()+"?limit=10", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, source.subjectCalled)
	assert.Equal(t, "sale", source.gotSubject)
	assert.Equal(t, saleID, source.gotSubjectID)
	assert.Equal(t, 10, source.gotLimit)

	var body []dto.AuditEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "sale", body[0].SubjectType)
	assert.Equal(t, saleID.String(), body[0].SubjectID)
	require.NotNil(t, body[0].ProductID)
	assert.Equal(t, productID.String(), *body[0].ProductID)
}

func TestAuditHandler_ProductHistory(t *testing.T) {
	productID := id.New()
	source := &fakeHistory{}
	router := newAuditRouter(source)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit/products/"+productID.String(), nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, source.productCalled)
	assert.Equal(t, productID, source.gotProductID)
	assert.Equal(t, 100, source.gotLimit)
}

func TestAuditHandler_InvalidID(t *testing.T) {
	source := &fakeHistory{}
	router := newAuditRouter(source)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/audit/products/not-a-uuid", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, source.productCalled)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/middleware"
	"github.com/Nawaf-TBE/home-widget-platform/internal/service"
	"github.com/Nawaf-TBE/home-widget-platform/internal/transport/httpdto"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

const testSecret = "test-secret"

type memStore struct {
	mu      sync.Mutex
	records map[string]*domain.WidgetRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*domain.WidgetRecord)}
}

func (s *memStore) Upsert(ctx context.Context, record *domain.WidgetRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.CacheKey()
	if existing, ok := s.records[key]; ok && existing.DataVersion >= record.DataVersion {
		return false, nil
	}
	copied := *record
	s.records[key] = &copied
	return true, nil
}

func (s *memStore) Get(ctx context.Context, key domain.WidgetKey) (*domain.WidgetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key.CacheKey()]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// nopCache always misses, so the handlers exercise the store path.
type nopCache struct {
	invalidated []domain.WidgetKey
}

func (c *nopCache) GetMany(ctx context.Context, keys []domain.WidgetKey) ([]*domain.WidgetRecord, []domain.WidgetKey) {
	return nil, keys
}

func (c *nopCache) Put(ctx context.Context, record *domain.WidgetRecord, ttl time.Duration) error {
	return nil
}

func (c *nopCache) Invalidate(ctx context.Context, key domain.WidgetKey) error {
	c.invalidated = append(c.invalidated, key)
	return nil
}

func setupRouter(t *testing.T) (*gin.Engine, *memStore, *nopCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	cache := &nopCache{}
	svc := service.NewDeliveryService(store, cache, logger.NewNop(), time.Hour)
	h := NewWidgetHandler(svc)

	r := gin.New()
	auth := middleware.AuthMiddleware(testSecret)
	v1 := r.Group("/v1")
	{
		v1.POST("/widgets/delivery", auth, h.Deliver)
		v1.GET("/home/widgets", auth, h.Home)
		v1.POST("/internal/widgets", auth, h.AdminUpsert)
	}
	return r, store, cache
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func seedRecord(t *testing.T, store *memStore, audienceType, audienceID string) *domain.WidgetRecord {
	t.Helper()
	record := &domain.WidgetRecord{
		WidgetKey: domain.WidgetKey{
			ProductID:    "deals_app",
			Platform:     domain.PlatformWeb,
			AudienceType: audienceType,
			AudienceID:   audienceID,
			Key:          "top_deals",
		},
		Content:       json.RawMessage(`{"schema_version":1,"data_version":1,"root":{"type":"text_row","text":"hi"}}`),
		SchemaVersion: 1,
		DataVersion:   1,
	}
	_, err := store.Upsert(context.Background(), record)
	require.NoError(t, err)
	return record
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeliver_RequiresToken(t *testing.T) {
	r, _, _ := setupRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", "", httpdto.DeliveryRequest{Keys: []domain.WidgetKey{}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeliver_RejectsBadToken(t *testing.T) {
	r, _, _ := setupRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", "not-a-token", httpdto.DeliveryRequest{Keys: []domain.WidgetKey{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeliver_RejectsWrongSecret(t *testing.T) {
	r, _, _ := setupRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "u1", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", signed, httpdto.DeliveryRequest{Keys: []domain.WidgetKey{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeliver_RejectsMissingKeys(t *testing.T) {
	r, _, _ := setupRouter(t)
	token := signToken(t, "u1", "member")

	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp httpdto.Response[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestDeliver_ResolvesBatch(t *testing.T) {
	r, store, _ := setupRouter(t)
	record := seedRecord(t, store, domain.AudienceDefault, "global")
	gated := seedRecord(t, store, domain.AudienceUser, "u1")
	token := signToken(t, "u2", "member")

	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", token, httpdto.DeliveryRequest{
		Keys: []domain.WidgetKey{record.WidgetKey, gated.WidgetKey},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpdto.Response[httpdto.DeliveryResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	// u1's record is silently omitted for u2.
	require.Len(t, resp.Data.Widgets, 1)
	assert.Equal(t, domain.AudienceDefault, resp.Data.Widgets[0].AudienceType)
	assert.JSONEq(t, string(record.Content), string(resp.Data.Widgets[0].Content))
}

func TestDeliver_EmptyResultIsStillOK(t *testing.T) {
	r, _, _ := setupRouter(t)
	token := signToken(t, "u1", "member")

	w := doJSON(t, r, http.MethodPost, "/v1/widgets/delivery", token, httpdto.DeliveryRequest{
		Keys: []domain.WidgetKey{{
			ProductID: "deals_app", Platform: domain.PlatformWeb,
			AudienceType: domain.AudienceDefault, AudienceID: "global", Key: "nope",
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpdto.Response[httpdto.DeliveryResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Widgets)
}

func TestHome_FallsBackToDefault(t *testing.T) {
	r, store, _ := setupRouter(t)
	seedRecord(t, store, domain.AudienceDefault, "global")
	token := signToken(t, "u1", "member")

	w := doJSON(t, r, http.MethodGet, "/v1/home/widgets?platform=web", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpdto.Response[[]httpdto.Widget]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.AudienceDefault, resp.Data[0].AudienceType)
}

func TestHome_PrefersUserRecord(t *testing.T) {
	r, store, _ := setupRouter(t)
	seedRecord(t, store, domain.AudienceDefault, "global")
	seedRecord(t, store, domain.AudienceUser, "u1")
	token := signToken(t, "u1", "member")

	w := doJSON(t, r, http.MethodGet, "/v1/home/widgets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpdto.Response[[]httpdto.Widget]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "u1", resp.Data[0].AudienceID)
}

func TestAdminUpsert_RequiresAdminRole(t *testing.T) {
	r, _, _ := setupRouter(t)
	token := signToken(t, "u1", "member")

	w := doJSON(t, r, http.MethodPost, "/v1/internal/widgets", token, httpdto.UpsertWidgetRequest{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminUpsert_RejectsIncompleteWidget(t *testing.T) {
	r, _, _ := setupRouter(t)
	token := signToken(t, "admin-1", "admin")

	w := doJSON(t, r, http.MethodPost, "/v1/internal/widgets", token, httpdto.UpsertWidgetRequest{
		WidgetKey: domain.WidgetKey{ProductID: "deals_app"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminUpsert_WritesAndInvalidates(t *testing.T) {
	r, store, cache := setupRouter(t)
	token := signToken(t, "admin-1", "admin")

	key := domain.WidgetKey{
		ProductID: "deals_app", Platform: domain.PlatformWeb,
		AudienceType: domain.AudienceDefault, AudienceID: "global", Key: "top_deals",
	}
	w := doJSON(t, r, http.MethodPost, "/v1/internal/widgets", token, httpdto.UpsertWidgetRequest{
		WidgetKey:     key,
		Content:       json.RawMessage(`{"schema_version":1,"data_version":2,"root":{"type":"text_row","text":"new"}}`),
		SchemaVersion: 1,
		DataVersion:   2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	record, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(2), record.DataVersion)

	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, key, cache.invalidated[0])
}

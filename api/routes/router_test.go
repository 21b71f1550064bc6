package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/comparison"
	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/groups"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	pkgAuth "github.com/quotehub/quotehub-backend/pkg/auth"
	"github.com/quotehub/quotehub-backend/pkg/config"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	dbtypes "github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubQuotesService struct{}

func (stubQuotesService) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return nil, nil
}

func (stubQuotesService) FindVersion(ctx context.Context, id uuid.UUID) (*models.QuoteVersion, error) {
	return nil, nil
}

func (stubQuotesService) ActiveVersion(ctx context.Context, quote *models.Quote) (*models.QuoteVersion, error) {
	return nil, nil
}

func (stubQuotesService) ResolveWritableVersion(ctx context.Context, tx *gorm.DB, quote *models.Quote, actorID uuid.UUID) (*quotes.WritableVersion, error) {
	panic("unimplemented")
}

type stubProcessService struct{}

func (stubProcessService) PerformProcess(ctx context.Context, quote *models.Quote, file *models.QuoteFile, opts docprocess.Options) error {
	return nil
}

func (stubProcessService) ProcessQueued(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

type stubMappedRowsService struct{}

func (stubMappedRowsService) Project(ctx context.Context, file *models.QuoteFile, versionID uuid.UUID, mapping mappedrows.RowMapping, settings mappedrows.Settings) error {
	panic("unimplemented")
}

func (stubMappedRowsService) ListByVersion(ctx context.Context, versionID uuid.UUID, offset, limit int) ([]models.MappedRow, error) {
	return nil, nil
}

type stubGroupsService struct {
	list func(ctx context.Context, quoteID uuid.UUID) (dbtypes.RowsGroups, error)
}

func (s stubGroupsService) Create(ctx context.Context, quoteID, actorID uuid.UUID, input groups.GroupInput) (*dbtypes.RowsGroup, error) {
	panic("unimplemented")
}

func (s stubGroupsService) Update(ctx context.Context, quoteID, actorID, groupID uuid.UUID, input groups.GroupInput) (*dbtypes.RowsGroup, error) {
	panic("unimplemented")
}

func (s stubGroupsService) Find(ctx context.Context, quoteID, groupID uuid.UUID) (*dbtypes.RowsGroup, error) {
	panic("unimplemented")
}

func (s stubGroupsService) List(ctx context.Context, quoteID uuid.UUID) (dbtypes.RowsGroups, error) {
	if s.list != nil {
		return s.list(ctx, quoteID)
	}
	return dbtypes.RowsGroups{}, nil
}

func (s stubGroupsService) Select(ctx context.Context, quoteID, actorID uuid.UUID, selections []groups.Selection) error {
	return nil
}

func (s stubGroupsService) MoveRows(ctx context.Context, quoteID, actorID, sourceID, destinationID uuid.UUID, rowIDs []uuid.UUID) error {
	return nil
}

func (s stubGroupsService) Delete(ctx context.Context, quoteID, actorID, groupID uuid.UUID) error {
	return nil
}

type stubComparisonService struct{}

func (stubComparisonService) Compare(ctx context.Context, baseFileID, targetFileID uuid.UUID) (*comparison.Result, error) {
	return &comparison.Result{BaseFileID: baseFileID, TargetFileID: targetFileID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		stubQuotesService{},
		stubProcessService{},
		nil,
		nil,
		stubMappedRowsService{},
		stubGroupsService{},
		stubComparisonService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "editor@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health live got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+uuid.NewString()+"/groups/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAPIGroupRejectsBadToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+uuid.NewString()+"/groups/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", resp.Code)
	}
}

func TestGroupListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/"+uuid.NewString()+"/groups/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for group list got %d", resp.Code)
	}
}

func TestProcessRejectsUnknownQuote(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/quotes/" + uuid.NewString() + "/files/" + uuid.NewString() + "/process"
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quote got %d", resp.Code)
	}
}

func TestCompareEndpointReturnsResult(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/quote-files/" + uuid.NewString() + "/compare/" + uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for comparison got %d", resp.Code)
	}
}

func TestInvalidPathUUIDRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/versions/not-a-uuid/mapped-rows", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid version id got %d", resp.Code)
	}
}

package api_test

import (
	"VCoin/internal/api"
	"VCoin/internal/api/config"
	"VCoin/internal/api/middleware"
	"VCoin/internal/pkg/consts"
	"VCoin/internal/pkg/security"
	"VCoin/internal/service"
	"VCoin/internal/testutil"
	"VCoin/internal/wire"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, isRevoked middleware.RevocationChecker) *testServer {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	security.InitJWT(cfg.JWT)

	db := testutil.NewDB(t)
	svcs := wire.BuildServices(db, cfg, service.NopPublisher{}, nil, service.StaticPrice(cfg.Reward.VcnPriceUSD))
	return &testServer{t: t, router: api.SetupRouter(cfg, wire.BuildHandlers(svcs), isRevoked)}
}

func (s *testServer) token(userID uint64, roles ...string) string {
	token, err := security.IssueToken(userID, roles, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *envelope {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(s.t, http.StatusOK, w.Code)

	out := &envelope{}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out))
	return out
}

func TestRouter_Ping(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, 200, resp.Code)
	assert.JSONEq(t, `"pong"`, string(resp.Data))
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, 401, s.do(http.MethodGet, "/api/wallet/balance", "", nil).Code)
	assert.Equal(t, 401, s.do(http.MethodGet, "/api/wallet/balance", "a.b", nil).Code)
}

func TestRouter_RevokedToken(t *testing.T) {
	s := newTestServer(t, func(context.Context, string) (bool, error) { return true, nil })

	resp := s.do(http.MethodGet, "/api/wallet/balance", s.token(1), nil)
	assert.Equal(t, 401, resp.Code)
}

func TestRouter_RoleChecks(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.token(1)

	assert.Equal(t, 403, s.do(http.MethodPost, "/api/admin/rewards/distribute", user, nil).Code)
	assert.Equal(t, 403, s.do(http.MethodPost, "/api/internal/ledger/credit", user, map[string]any{
		"user_id": 1, "amount": "10", "source": "purchase",
	}).Code)
}

func TestRouter_WalletFlow(t *testing.T) {
	s := newTestServer(t, nil)
	internal := s.token(0, consts.RoleInternal)
	alice, bob := s.token(1), s.token(2)

	resp := s.do(http.MethodPost, "/api/internal/ledger/credit", internal, map[string]any{
		"user_id": 1, "amount": "100", "source": "campaign", "related_id": "c-1",
	})
	require.Equal(t, 200, resp.Code, resp.Message)

	resp = s.do(http.MethodPost, "/api/wallet/transfer", alice, map[string]any{"to_user_id": 2, "amount": "0"})
	assert.Equal(t, 400, resp.Code)

	resp = s.do(http.MethodPost, "/api/wallet/transfer", alice, map[string]any{"to_user_id": 2, "amount": "10"})
	require.Equal(t, 200, resp.Code, resp.Message)
	var transfer struct {
		Fee       string `json:"fee"`
		NetAmount string `json:"net_amount"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &transfer))
	assert.Equal(t, "0.5", transfer.Fee)
	assert.Equal(t, "9.5", transfer.NetAmount)

	resp = s.do(http.MethodGet, "/api/wallet/balance", bob, nil)
	require.Equal(t, 200, resp.Code)
	var balance struct {
		Available string `json:"available"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &balance))
	assert.Equal(t, "9.5", balance.Available)

	resp = s.do(http.MethodGet, "/api/wallet/transactions?page=1&limit=10", alice, nil)
	require.Equal(t, 200, resp.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(2), page.Total)

	resp = s.do(http.MethodPost, "/api/staking", bob, map[string]any{"amount": "100", "lock_days": 30})
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, service.ErrInsufficientBalance.Error(), resp.Message)

	resp = s.do(http.MethodPost, "/api/internal/ledger/debit", internal, map[string]any{
		"user_id": 2, "amount": "20", "source": "purchase",
	})
	assert.Equal(t, 400, resp.Code)
}

func TestRouter_PublicRewards(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, 200, s.do(http.MethodGet, "/api/rewards/leaderboard?period=weekly", "", nil).Code)
	assert.Equal(t, 400, s.do(http.MethodGet, "/api/rewards/leaderboard?period=hourly", "", nil).Code)
	assert.Equal(t, 404, s.do(http.MethodGet, "/api/rewards/distributions/2026-10-15", "", nil).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/wallet/balance", nil)
	req.Header.Set("Origin", "https://wallet.example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://wallet.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

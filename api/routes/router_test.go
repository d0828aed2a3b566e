package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatepay/estatepay-backend/api/controllers"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/internal/eventstore"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/internal/projections/voucher"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubTotals struct{}

func (stubTotals) SaleTotals(context.Context, uuid.UUID, uuid.UUID, time.Time) (int, decimal.Decimal, error) {
	return 0, decimal.Zero, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "dev"
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.ErrorLevel})

	store := eventstore.NewMemoryStore()
	registry := events.NewRegistry()
	balances := merchantbalance.NewMemoryRepository()

	svcs := Services{
		Estates:         commands.NewEstateService(store, registry, logg),
		Merchants:       commands.NewMerchantService(store, registry, balances, logg),
		Contracts:       commands.NewContractService(store, registry, logg),
		Floats:          commands.NewFloatService(store, registry, logg),
		Transactions:    commands.NewTransactionService(store, registry, logg),
		Settlements:     commands.NewSettlementService(store, registry, logg),
		Reconciliations: commands.NewReconciliationService(store, registry, stubTotals{}, logg),
		Vouchers:        commands.NewVoucherService(store, registry, logg),
	}

	reads := ReadModels{
		Balances: balances,
		Vouchers: voucher.NewMemoryRepository(),
	}

	return NewRouter(cfg, logg, map[string]controllers.Pinger{"db": stubPinger{}}, svcs, reads)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-EstatePay-Env"))
}

func TestHealthReadyReportsDownDependency(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.ErrorLevel})

	handler := controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
		"db": stubPinger{err: fmt.Errorf("connection refused")},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateEstateEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"name":"Northgate","reference":"NG-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estates/", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data["estate_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCreateEstateRejectsMissingFields(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"name":"Northgate"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estates/", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Details, "reference")
}

func TestTerminalLogonUnknownMerchantDeclines(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{
		"estate_id":"5f0f6f49-6a3b-4d2c-9e5d-0b1a2c3d4e5f",
		"merchant_id":"7a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9",
		"device_identifier":"term-1",
		"transaction_number":1
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/terminal/logon", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			Authorised   bool   `json:"authorised"`
			ResponseCode string `json:"response_code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Authorised)
}

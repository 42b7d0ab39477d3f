package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fabguard/storefront-backend/api/middleware"
	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/internal/coupons"
	"github.com/fabguard/storefront-backend/internal/sessions"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
)

const testSession = "browser-session-1"

var (
	plumbing   = cart.Service{ID: 1, Name: "Plumbing Services", Price: decimal.NewFromInt(150), Category: "plumbing"}
	electrical = cart.Service{ID: 2, Name: "Electrical Services", Price: decimal.NewFromInt(150), Category: "electrical"}
)

type stubCatalog struct{}

func (stubCatalog) Index(context.Context) (cart.Index, error) {
	return cart.NewIndex([]cart.Service{plumbing, electrical}), nil
}

func (stubCatalog) SubItems(_ context.Context, svc cart.Service) ([]string, error) {
	if svc.Category == "plumbing" {
		return []string{"TOILET JET", "GULLY TRAP"}, nil
	}
	return []string{"FAN", "SWITCH BOARD"}, nil
}

type stubSubmitter struct {
	mu     sync.Mutex
	drafts []checkout.OrderDraft
	err    error
	result *checkout.SubmitResult
}

func (s *stubSubmitter) Submit(_ context.Context, draft checkout.OrderDraft, clear func()) (*checkout.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = append(s.drafts, draft)
	if s.err != nil {
		return nil, s.err
	}
	clear()
	if s.result != nil {
		return s.result, nil
	}
	return &checkout.SubmitResult{Persisted: true, OrderID: "ORDER-1748773800000", Message: "Order placed successfully"}, nil
}

func newTestRegistry(t *testing.T, submitter checkout.Submitter) *sessions.Registry {
	t.Helper()
	if submitter == nil {
		submitter = &stubSubmitter{}
	}
	reg, err := sessions.NewRegistry(sessions.Deps{
		Catalog:   stubCatalog{},
		Submitter: submitter,
		Coupons:   coupons.DefaultTable(),
	}, sessions.Options{})
	require.NoError(t, err)
	return reg
}

// storefrontRouter mounts the session-scoped handlers the way the API router does.
func storefrontRouter(runner SessionRunner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", CartFetch(runner, nil))
		r.Put("/panel", CartPanel(runner, nil))
		r.Post("/lines", CartAddLine(runner, nil, nil))
		r.Delete("/lines/{serviceId}", CartRemoveLine(runner, nil, nil))
		r.Put("/lines/{serviceId}/quantity", CartSetQuantity(runner, nil, nil))
		r.Put("/lines/{serviceId}/items", CartSetItems(runner, nil, nil))
	})
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", CheckoutFetch(runner, nil))
		r.Post("/open", CheckoutOpen(runner, nil))
		r.Post("/cancel", CheckoutCancel(runner, nil))
		r.Post("/proceed", CheckoutProceed(runner, nil))
		r.Post("/details", CheckoutDetails(runner, nil))
		r.Post("/coupon", CheckoutApplyCoupon(runner, nil))
		r.Delete("/coupon", CheckoutRemoveCoupon(runner, nil))
		r.Post("/terms", CheckoutTerms(runner, nil))
		r.Post("/submit", CheckoutSubmit(runner, nil))
		r.Post("/lines/{serviceId}/expand", CheckoutExpandLine(runner, nil))
		r.Post("/lines/{serviceId}/items", CheckoutToggleItem(runner, nil))
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.SessionHeader, testSession)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var envelope struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Error
}

var errPersistenceDown = pkgerrors.New(pkgerrors.CodePersistence, "order could not be saved")

package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func doAdmin(t *testing.T, h echo.HandlerFunc, method, target, body, paramID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramID != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestAdminResolveEndpoints(t *testing.T) {
	svc, banks := newTestService(t)
	admin := NewAdminHandler(svc)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "u1", 100000)

	req, err := svc.CreateWithdrawal(ctx, "u1", 40000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := doAdmin(t, admin.ListPendingWithdrawals, http.MethodGet, "/admin/withdrawals/pending", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if len(body["pending_withdrawals"].([]interface{})) != 1 {
		t.Fatalf("expected 1 pending withdrawal, got %v", body)
	}

	rec = doAdmin(t, admin.ApproveWithdrawal, http.MethodPost, "/admin/withdrawals/x/approve",
		`{"note":"payout ref TX-1"}`, req.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	w, _ := svc.GetWallet(ctx, "u1")
	if w.Balance != 60000 || w.LockedBalance != 0 {
		t.Fatalf("after approve: balance=%d locked=%d", w.Balance, w.LockedBalance)
	}

	// Second resolve of the same request is a conflict.
	rec = doAdmin(t, admin.RejectWithdrawal, http.MethodPost, "/admin/withdrawals/x/reject",
		`{"note":"late"}`, req.ID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double resolve: expected 409, got %d", rec.Code)
	}

	rec = doAdmin(t, admin.ApproveWithdrawal, http.MethodPost, "/admin/withdrawals/x/approve",
		`{"note":""}`, "no-such-id")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown request: expected 404, got %d", rec.Code)
	}
}

func TestAdminCreditEndpoint(t *testing.T) {
	svc, _ := newTestService(t)
	admin := NewAdminHandler(svc)

	rec := doAdmin(t, admin.CreditWallet, http.MethodPost, "/admin/wallets/x/credit",
		`{"type":"booking_income","amount":75000,"description":"booking #99"}`, "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	w, _ := svc.GetWallet(context.Background(), "u1")
	if w.Balance != 75000 {
		t.Fatalf("expected balance 75000, got %d", w.Balance)
	}

	// The credit endpoint cannot write workflow-owned entry types.
	rec = doAdmin(t, admin.CreditWallet, http.MethodPost, "/admin/wallets/x/credit",
		`{"type":"withdraw","amount":-1000}`, "u1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for withdraw credit, got %d", rec.Code)
	}
}

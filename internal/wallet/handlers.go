package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lamnguyen-dev/walletcore/internal/bankinfo"
)

// Handler exposes the client-facing wallet surface. Every route derives the
// wallet id from the authenticated user_id the JWT middleware set; nothing is
// taken from the request body.
type Handler struct {
	svc   *Service
	banks bankinfo.Directory
}

func NewHandler(svc *Service, banks bankinfo.Directory) *Handler {
	return &Handler{svc: svc, banks: banks}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/wallet", h.GetWallet)
	g.GET("/wallet/transactions", h.ListTransactions)
	g.GET("/wallet/withdraw-requests", h.ListWithdrawRequests)
	g.POST("/wallet/set-pin", h.SetPin)
	g.POST("/wallet/verify-pin", h.VerifyPin)
	g.POST("/wallet/withdraw", h.Withdraw)
	g.GET("/wallet/bank-accounts", h.ListBankAccounts)
	g.POST("/wallet/bank-accounts", h.RegisterBankAccount)
}

func callerID(c echo.Context) (string, bool) {
	uid, ok := c.Get("user_id").(string)
	return uid, ok && uid != ""
}

// GetWallet returns the authenticated user's wallet summary.
func (h *Handler) GetWallet(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	w, err := h.svc.GetWallet(c.Request().Context(), uid)
	if err != nil {
		return walletError(c, err)
	}

	resp := echo.Map{
		"balance":        w.Balance,
		"locked_balance": w.LockedBalance,
		"available":      w.Available(),
		"has_pin":        w.HasPin(),
		"is_locked":      w.LockedUntil != nil && w.LockedUntil.After(h.svc.now()),
	}
	if w.LockedUntil != nil {
		resp["locked_until"] = w.LockedUntil
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	before, _ := strconv.ParseInt(c.QueryParam("before"), 10, 64)

	txns, err := h.svc.ListTransactions(c.Request().Context(), uid, limit, before)
	if err != nil {
		return walletError(c, err)
	}

	resp := echo.Map{"transactions": txns}
	if len(txns) == limit {
		resp["next_cursor"] = txns[len(txns)-1].Seq
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListWithdrawRequests(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	status := RequestStatus(c.QueryParam("status"))
	reqs, err := h.svc.ListRequests(c.Request().Context(), uid, status)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"withdraw_requests": reqs})
}

func (h *Handler) SetPin(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Pin string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.svc.SetPin(c.Request().Context(), uid, req.Pin); err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pin set"})
}

func (h *Handler) VerifyPin(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Pin string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if err := h.svc.VerifyPin(c.Request().Context(), uid, req.Pin); err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pin verified"})
}

// Withdraw creates a pending withdraw request. PIN verification and the fund
// reservation happen inside one atomic call.
func (h *Handler) Withdraw(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Amount     int64  `json:"amount"`
		BankInfoID string `json:"bank_info_id"`
		Pin        string `json:"pin"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	created, err := h.svc.CreateWithdrawal(c.Request().Context(), uid, req.Amount, req.BankInfoID, req.Pin)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListBankAccounts(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	accts, err := h.banks.ListByOwner(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch bank accounts"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bank_accounts": accts})
}

func (h *Handler) RegisterBankAccount(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		BankName          string `json:"bank_name"`
		AccountNumber     string `json:"account_number"`
		AccountHolderName string `json:"account_holder_name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BankName == "" || req.AccountNumber == "" || req.AccountHolderName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bank_name, account_number and account_holder_name are required"})
	}

	acct := &bankinfo.Account{
		OwnerID:           uid,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		AccountHolderName: req.AccountHolderName,
	}
	if err := h.banks.Register(c.Request().Context(), acct); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not register bank account"})
	}
	return c.JSON(http.StatusCreated, acct)
}

// walletError maps the service error taxonomy onto HTTP statuses. Insufficient
// funds carries the available balance so the client can correct the amount;
// invariant violations surface as a generic internal error.
func walletError(c echo.Context, err error) error {
	var insufficient *InsufficientFundsError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "insufficient available balance",
			"available": insufficient.Available,
		})
	}

	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPinFormat),
		errors.Is(err, ErrUnknownBankAccount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrInsufficientFunds):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidPin):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid pin"})
	case errors.Is(err, ErrWalletLocked):
		return c.JSON(http.StatusLocked, echo.Map{"error": "wallet temporarily locked"})
	case errors.Is(err, ErrPinSetupRequired),
		errors.Is(err, ErrPinAlreadySet),
		errors.Is(err, ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

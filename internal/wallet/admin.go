package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler is the back-office resolver surface: the pending queue,
// approve-and-pay / reject, credit entry points, and read-only views. Routes
// sit behind the admin guard; the resolver is a trusted caller.
type AdminHandler struct {
	svc *Service
}

func NewAdminHandler(svc *Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Register(g *echo.Group) {
	g.GET("/withdrawals/pending", h.ListPendingWithdrawals)
	g.POST("/withdrawals/:id/approve", h.ApproveWithdrawal)
	g.POST("/withdrawals/:id/reject", h.RejectWithdrawal)
	g.POST("/wallets/:id/credit", h.CreditWallet)
	g.GET("/wallets", h.ListWallets)
	g.GET("/transactions/user/:id", h.ListUserTransactions)
}

// ListPendingWithdrawals returns the resolution queue, oldest first.
func (h *AdminHandler) ListPendingWithdrawals(c echo.Context) error {
	reqs, err := h.svc.ListPendingRequests(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch withdrawals"})
	}
	return c.JSON(http.StatusOK, echo.Map{"pending_withdrawals": reqs})
}

type resolveRequest struct {
	Note string `json:"note"`
}

// ApproveWithdrawal settles a pending request as paid: the reservation is
// released and the balance debited in the same unit.
func (h *AdminHandler) ApproveWithdrawal(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	resolved, err := h.svc.Resolve(c.Request().Context(), c.Param("id"), StatusPaid, req.Note)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "withdrawal approved and paid",
		"withdrawal_id": resolved.ID,
		"status":        resolved.Status,
	})
}

// RejectWithdrawal settles a pending request as rejected: the reservation is
// released and no balance is debited.
func (h *AdminHandler) RejectWithdrawal(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	resolved, err := h.svc.Resolve(c.Request().Context(), c.Param("id"), StatusRejected, req.Note)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "withdrawal rejected",
		"withdrawal_id": resolved.ID,
		"status":        resolved.Status,
	})
}

// CreditWallet writes a booking_income, refund, or system_adjust ledger entry.
func (h *AdminHandler) CreditWallet(c echo.Context) error {
	var req struct {
		Type        TxType `json:"type"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	txn, err := h.svc.Credit(c.Request().Context(), c.Param("id"), req.Type, req.Amount, req.Description)
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(http.StatusCreated, txn)
}

func (h *AdminHandler) ListWallets(c echo.Context) error {
	wallets, err := h.svc.ListWallets(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch wallets"})
	}
	return c.JSON(http.StatusOK, echo.Map{"wallets": wallets})
}

func (h *AdminHandler) ListUserTransactions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user ID is required"})
	}

	txns, err := h.svc.ListTransactions(c.Request().Context(), userID, 100, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch user transactions"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txns})
}

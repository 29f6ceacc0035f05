package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lamnguyen-dev/walletcore/internal/bankinfo"
)

// setupWithdrawable funds a wallet, sets its PIN to 123456, and registers a
// bank account, returning the bank_info_id.
func setupWithdrawable(t *testing.T, svc *Service, banks *bankinfo.MemDirectory, walletID string, balance int64) string {
	t.Helper()
	ctx := context.Background()
	mustCredit(t, svc, walletID, balance)
	if err := svc.SetPin(ctx, walletID, "123456"); err != nil {
		t.Fatalf("set pin failed: %v", err)
	}
	acct := &bankinfo.Account{
		OwnerID:           walletID,
		BankName:          "VCB",
		AccountNumber:     "0123456789",
		AccountHolderName: "NGUYEN VAN A",
	}
	if err := banks.Register(ctx, acct); err != nil {
		t.Fatalf("register bank account failed: %v", err)
	}
	return acct.ID
}

func TestCreateWithdrawalHoldsFunds(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	req, err := svc.CreateWithdrawal(ctx, "w1", 50000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}

	w, _ := svc.GetWallet(ctx, "w1")
	if w.Balance != 100000 || w.LockedBalance != 50000 || w.Available() != 50000 {
		t.Fatalf("after create: balance=%d locked=%d available=%d", w.Balance, w.LockedBalance, w.Available())
	}
}

func TestCreateWithdrawalValidation(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	if _, err := svc.CreateWithdrawal(ctx, "w1", 0, bankID, "123456"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreateWithdrawal(ctx, "w1", -5, bankID, "123456"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreateWithdrawal(ctx, "w1", 1000, "no-such-account", "123456"); !errors.Is(err, ErrUnknownBankAccount) {
		t.Fatalf("expected ErrUnknownBankAccount, got %v", err)
	}

	// A foreign bank account is just as unknown as a missing one.
	other := &bankinfo.Account{OwnerID: "w2", BankName: "ACB", AccountNumber: "99", AccountHolderName: "B"}
	if err := banks.Register(ctx, other); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.CreateWithdrawal(ctx, "w1", 1000, other.ID, "123456"); !errors.Is(err, ErrUnknownBankAccount) {
		t.Fatalf("foreign account: expected ErrUnknownBankAccount, got %v", err)
	}
}

func TestCreateWithdrawalBoundary(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	if _, err := svc.CreateWithdrawal(ctx, "w1", 100001, bankID, "123456"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("available+1: expected ErrInsufficientFunds, got %v", err)
	}
	var insufficient *InsufficientFundsError
	if _, err := svc.CreateWithdrawal(ctx, "w1", 100001, bankID, "123456"); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	} else if insufficient.Available != 100000 {
		t.Fatalf("expected available 100000, got %d", insufficient.Available)
	}

	if _, err := svc.CreateWithdrawal(ctx, "w1", 100000, bankID, "123456"); err != nil {
		t.Fatalf("amount == available must succeed: %v", err)
	}
}

func TestCreateWithdrawalRequiresPinSetup(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	mustCredit(t, svc, "w1", 100000)
	acct := &bankinfo.Account{OwnerID: "w1", BankName: "VCB", AccountNumber: "01", AccountHolderName: "A"}
	if err := banks.Register(ctx, acct); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.CreateWithdrawal(ctx, "w1", 1000, acct.ID, "123456"); !errors.Is(err, ErrPinSetupRequired) {
		t.Fatalf("expected ErrPinSetupRequired, got %v", err)
	}

	// After PIN setup the very same call goes through.
	if err := svc.SetPin(ctx, "w1", "123456"); err != nil {
		t.Fatalf("set pin failed: %v", err)
	}
	if _, err := svc.CreateWithdrawal(ctx, "w1", 1000, acct.ID, "123456"); err != nil {
		t.Fatalf("create after pin setup failed: %v", err)
	}
}

func TestCreateWithdrawalWrongPinLeavesNoReservation(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	if _, err := svc.CreateWithdrawal(ctx, "w1", 1000, bankID, "000000"); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}

	w, _ := svc.GetWallet(ctx, "w1")
	if w.LockedBalance != 0 {
		t.Fatalf("aborted create left a reservation: %d", w.LockedBalance)
	}
	reqs, _ := svc.ListRequests(ctx, "w1", "")
	if len(reqs) != 0 {
		t.Fatalf("aborted create persisted a request")
	}
	// But the failed attempt itself must have stuck.
	if w.FailedPinAttempts != 1 {
		t.Fatalf("failed attempt not recorded: %d", w.FailedPinAttempts)
	}
}

func TestResolveRejectedReleasesFunds(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	req, err := svc.CreateWithdrawal(ctx, "w1", 50000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resolved, err := svc.Resolve(ctx, req.ID, StatusRejected, "account name mismatch")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Status != StatusRejected || resolved.ResolvedAt == nil {
		t.Fatalf("bad resolved request: %+v", resolved)
	}

	w, _ := svc.GetWallet(ctx, "w1")
	if w.Balance != 100000 || w.LockedBalance != 0 {
		t.Fatalf("after reject: balance=%d locked=%d", w.Balance, w.LockedBalance)
	}

	txns, _ := svc.ListTransactions(ctx, "w1", 10, 0)
	if txns[0].Type != TxWithdrawReject || txns[0].Amount != 0 {
		t.Fatalf("expected zero-amount withdraw_reject entry, got %s/%d", txns[0].Type, txns[0].Amount)
	}
}

func TestResolvePaidDebitsBalance(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	req, err := svc.CreateWithdrawal(ctx, "w1", 50000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	resolved, err := svc.Resolve(ctx, req.ID, StatusPaid, "payout ref TX-771")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", resolved.Status)
	}

	w, _ := svc.GetWallet(ctx, "w1")
	if w.Balance != 50000 || w.LockedBalance != 0 {
		t.Fatalf("after payout: balance=%d locked=%d", w.Balance, w.LockedBalance)
	}

	txns, _ := svc.ListTransactions(ctx, "w1", 10, 0)
	if txns[0].Type != TxWithdraw || txns[0].Amount != -50000 {
		t.Fatalf("expected withdraw entry of -50000, got %s/%d", txns[0].Type, txns[0].Amount)
	}
}

func TestResolveTwice(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	req, err := svc.CreateWithdrawal(ctx, "w1", 50000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Resolve(ctx, req.ID, StatusPaid, ""); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	if _, err := svc.Resolve(ctx, req.ID, StatusRejected, ""); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := svc.Resolve(ctx, req.ID, StatusPaid, ""); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on repeat, got %v", err)
	}

	// No double debit.
	w, _ := svc.GetWallet(ctx, "w1")
	if w.Balance != 50000 || w.LockedBalance != 0 {
		t.Fatalf("double resolve adjusted balance: balance=%d locked=%d", w.Balance, w.LockedBalance)
	}
}

func TestResolveUnknownRequest(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Resolve(context.Background(), "no-such-request", StatusPaid, ""); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestResolveBadOutcome(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)
	req, err := svc.CreateWithdrawal(ctx, "w1", 1000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Resolve(ctx, req.ID, StatusPending, ""); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := svc.Resolve(ctx, req.ID, StatusApproved, ""); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestConcurrentCreatesSerialize(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateWithdrawal(ctx, "w1", 60000, bankID, "123456")
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one success and one insufficient-funds, got ok=%d insufficient=%d", ok, insufficient)
	}

	w, _ := svc.GetWallet(ctx, "w1")
	if w.LockedBalance != 60000 {
		t.Fatalf("expected a single 60000 reservation, got %d", w.LockedBalance)
	}
}

func TestListRequestsFilters(t *testing.T) {
	svc, banks := newTestService(t)
	ctx := context.Background()
	bankID := setupWithdrawable(t, svc, banks, "w1", 100000)

	first, err := svc.CreateWithdrawal(ctx, "w1", 10000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := svc.CreateWithdrawal(ctx, "w1", 20000, bankID, "123456")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Resolve(ctx, first.ID, StatusRejected, ""); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	pending, err := svc.ListRequests(ctx, "w1", StatusPending)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only the second request pending, got %+v", pending)
	}

	all, err := svc.ListRequests(ctx, "w1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(all))
	}

	queue, err := svc.ListPendingRequests(ctx)
	if err != nil {
		t.Fatalf("queue list failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != second.ID {
		t.Fatalf("back-office queue wrong: %+v", queue)
	}
}

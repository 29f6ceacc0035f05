package wallet

import (
	"time"

	"go.uber.org/zap"

	"github.com/lamnguyen-dev/walletcore/internal/bankinfo"
)

// Service is the wallet authority: the ledger, the PIN gate, and the
// withdrawal workflow behind one façade. Handlers pass the caller's verified
// owner id into every method; the service holds no ambient identity.
type Service struct {
	store Store
	banks bankinfo.Directory
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, banks bankinfo.Directory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		banks: banks,
		log:   log,
		now:   time.Now,
	}
}

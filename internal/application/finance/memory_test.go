package finance

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/ledger"
	"github.com/ridehail/backend/internal/domain/payout"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/ridehail/backend/internal/domain/shared"
	"github.com/ridehail/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// In-memory repositories backing the service tests. Locking methods behave
// like their plain counterparts; the NoOp scope runs everything in one
// goroutine so there is nothing to serialize.

type memAccountRepo struct {
	byCode map[string]*ledger.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{byCode: make(map[string]*ledger.Account)}
}

func (r *memAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Account, error) {
	for _, a := range r.byCode {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) FindByCode(_ context.Context, code string) (*ledger.Account, error) {
	a, ok := r.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) FindByCodeForUpdate(ctx context.Context, code string) (*ledger.Account, error) {
	return r.FindByCode(ctx, code)
}

func (r *memAccountRepo) FindAll(_ context.Context, _ shared.Filter) ([]ledger.Account, error) {
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]ledger.Account, 0, len(codes))
	for _, code := range codes {
		out = append(out, *r.byCode[code])
	}
	return out, nil
}

func (r *memAccountRepo) Save(_ context.Context, account *ledger.Account) error {
	cp := *account
	r.byCode[account.Code] = &cp
	return nil
}

type memJournalRepo struct {
	entries []*ledger.JournalEntry
}

func newMemJournalRepo() *memJournalRepo {
	return &memJournalRepo{}
}

func (r *memJournalRepo) CreateBatch(_ context.Context, entries []*ledger.JournalEntry) error {
	for _, e := range entries {
		cp := *e
		r.entries = append(r.entries, &cp)
	}
	return nil
}

func (r *memJournalRepo) FindByTransactionID(_ context.Context, transactionID uuid.UUID) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	for _, e := range r.entries {
		if e.TransactionID == transactionID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memJournalRepo) FindByReference(_ context.Context, refType ledger.ReferenceType, refID uuid.UUID) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	for _, e := range r.entries {
		if e.ReferenceType == refType && e.ReferenceID == refID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memJournalRepo) ExistsByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID) (bool, error) {
	found, err := r.FindByReference(ctx, refType, refID)
	return len(found) > 0, err
}

func (r *memJournalRepo) SumByAccountAndType(_ context.Context, accountID uuid.UUID, entryType ledger.EntryType) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.AccountID == accountID && e.EntryType == entryType {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memJournalRepo) ListTransactionIDs(_ context.Context, limit int) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, e := range r.entries {
		if !seen[e.TransactionID] {
			seen[e.TransactionID] = true
			out = append(out, e.TransactionID)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type memEventRepo struct {
	byID map[uuid.UUID]*ledger.FinancialEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{byID: make(map[uuid.UUID]*ledger.FinancialEvent)}
}

func (r *memEventRepo) Create(_ context.Context, event *ledger.FinancialEvent) error {
	cp := *event
	r.byID[event.ID] = &cp
	return nil
}

func (r *memEventRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.FinancialEvent, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memEventRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.FinancialEvent, error) {
	return r.FindByID(ctx, id)
}

func (r *memEventRepo) FindByRideAndType(_ context.Context, rideID uuid.UUID, eventType ledger.EventType) (*ledger.FinancialEvent, error) {
	for _, e := range r.byID {
		if e.RideID != nil && *e.RideID == rideID && e.EventType == eventType {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memEventRepo) FindByExternalTransactionID(_ context.Context, txID string) (*ledger.FinancialEvent, error) {
	for _, e := range r.byID {
		if e.ExternalTransactionID != nil && *e.ExternalTransactionID == txID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memEventRepo) FindByDriver(_ context.Context, driverID uuid.UUID, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	var out []ledger.FinancialEvent
	for _, e := range r.byID {
		if e.DriverID == nil || *e.DriverID != driverID {
			continue
		}
		if filter.EventType != nil && e.EventType != *filter.EventType {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (r *memEventRepo) FindByPassenger(_ context.Context, passengerID uuid.UUID, filter ledger.FinancialEventFilter) ([]ledger.FinancialEvent, int64, error) {
	var out []ledger.FinancialEvent
	for _, e := range r.byID {
		if e.PassengerID != nil && *e.PassengerID == passengerID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memEventRepo) SumCompletedByDriver(_ context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.byID {
		if e.DriverID == nil || *e.DriverID != driverID {
			continue
		}
		if e.Status != ledger.EventStatusCompleted {
			continue
		}
		if e.EventType == ledger.EventTypeIncentiveCredit {
			continue
		}
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (r *memEventRepo) SumCompletedByDriverAndType(_ context.Context, driverID uuid.UUID, eventType ledger.EventType) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.byID {
		if e.DriverID != nil && *e.DriverID == driverID &&
			e.Status == ledger.EventStatusCompleted && e.EventType == eventType {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memEventRepo) SumPendingByDriverAndType(_ context.Context, driverID uuid.UUID, eventType ledger.EventType) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.byID {
		if e.DriverID != nil && *e.DriverID == driverID &&
			e.Status == ledger.EventStatusPending && e.EventType == eventType {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memEventRepo) SumCompletedByPassenger(_ context.Context, passengerID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.byID {
		if e.PassengerID != nil && *e.PassengerID == passengerID && e.Status == ledger.EventStatusCompleted {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memEventRepo) Save(_ context.Context, event *ledger.FinancialEvent) error {
	cp := *event
	r.byID[event.ID] = &cp
	return nil
}

type memSettlementRepo struct {
	byID map[uuid.UUID]*settlement.Settlement
}

func newMemSettlementRepo() *memSettlementRepo {
	return &memSettlementRepo{byID: make(map[uuid.UUID]*settlement.Settlement)}
}

func (r *memSettlementRepo) Create(_ context.Context, s *settlement.Settlement) error {
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *memSettlementRepo) FindByID(_ context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSettlementRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	return r.FindByID(ctx, id)
}

func (r *memSettlementRepo) FindByFinancialEventID(_ context.Context, eventID uuid.UUID) (*settlement.Settlement, error) {
	for _, s := range r.byID {
		if s.FinancialEventID == eventID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSettlementRepo) FindDue(_ context.Context, now time.Time, limit int) ([]settlement.Settlement, error) {
	var out []settlement.Settlement
	for _, s := range r.byID {
		if s.Status == settlement.StatusPending && !s.ScheduledFor.After(now) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSettlementRepo) FindPendingByDriver(_ context.Context, driverID uuid.UUID) ([]settlement.Settlement, error) {
	var out []settlement.Settlement
	for _, s := range r.byID {
		if s.DriverID == driverID && s.Status == settlement.StatusPending {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSettlementRepo) SumPendingByDriver(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	pending, err := r.FindPendingByDriver(ctx, driverID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, s := range pending {
		sum = sum.Add(s.Amount)
	}
	return sum, nil
}

func (r *memSettlementRepo) Save(_ context.Context, s *settlement.Settlement) error {
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

type memPayoutRepo struct {
	byID map[uuid.UUID]*payout.Payout
}

func newMemPayoutRepo() *memPayoutRepo {
	return &memPayoutRepo{byID: make(map[uuid.UUID]*payout.Payout)}
}

func (r *memPayoutRepo) Create(_ context.Context, p *payout.Payout) error {
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memPayoutRepo) FindByID(_ context.Context, id uuid.UUID) (*payout.Payout, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memPayoutRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	return r.FindByID(ctx, id)
}

func (r *memPayoutRepo) CountOutstandingByDriver(_ context.Context, driverID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.byID {
		if p.DriverID == driverID && p.Status.IsOutstanding() {
			count++
		}
	}
	return count, nil
}

func (r *memPayoutRepo) SumOutstandingByDriver(_ context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.byID {
		if p.DriverID == driverID && p.Status.IsOutstanding() {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memPayoutRepo) FindByDriver(_ context.Context, driverID uuid.UUID, _ shared.Filter) ([]payout.Payout, int64, error) {
	var out []payout.Payout
	for _, p := range r.byID {
		if p.DriverID == driverID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (r *memPayoutRepo) Save(_ context.Context, p *payout.Payout) error {
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

type memWalletRepo struct {
	byDriver map[uuid.UUID]*wallet.DriverWallet
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{byDriver: make(map[uuid.UUID]*wallet.DriverWallet)}
}

func (r *memWalletRepo) FindByDriverID(_ context.Context, driverID uuid.UUID) (*wallet.DriverWallet, error) {
	w, ok := r.byDriver[driverID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Create(_ context.Context, w *wallet.DriverWallet) error {
	cp := *w
	r.byDriver[w.DriverID] = &cp
	return nil
}

func (r *memWalletRepo) Save(_ context.Context, w *wallet.DriverWallet) error {
	cp := *w
	r.byDriver[w.DriverID] = &cp
	return nil
}

// fakeGateway is a scripted payment rail
type fakeGateway struct {
	failWith string
	calls    int
}

func (g *fakeGateway) SendTransfer(_ context.Context, req payout.TransferRequest) (payout.TransferResult, error) {
	g.calls++
	if g.failWith != "" {
		return payout.TransferResult{}, errors.New(g.failWith)
	}
	return payout.TransferResult{
		ProviderTransactionID: "prov-" + strings.Split(req.PayoutID.String(), "-")[0],
	}, nil
}

func (g *fakeGateway) Name() string {
	return "fake"
}

// testEnv bundles one fully wired in-memory service stack
type testEnv struct {
	scope       *NoOpTransactionScope
	accounts    *memAccountRepo
	journal     *memJournalRepo
	events      *memEventRepo
	settlements *memSettlementRepo
	payouts     *memPayoutRepo
	wallets     *memWalletRepo
	gateway     *fakeGateway

	posting     *PostingService
	walletSvc   *WalletService
	settlement  *SettlementService
	eventSvc    *EventService
	payoutSvc   *PayoutService
	ridePayment *RidePaymentService
	integrity   *IntegrityService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		accounts:    newMemAccountRepo(),
		journal:     newMemJournalRepo(),
		events:      newMemEventRepo(),
		settlements: newMemSettlementRepo(),
		payouts:     newMemPayoutRepo(),
		wallets:     newMemWalletRepo(),
		gateway:     &fakeGateway{},
	}
	env.scope = NewNoOpTransactionScope(
		env.accounts, env.journal, env.events, env.settlements, env.payouts, env.wallets,
	)

	logger := zap.NewNop()
	env.posting = NewPostingService(env.scope, logger)
	env.walletSvc = NewWalletService(env.scope, logger)
	env.settlement = NewSettlementService(env.scope, env.walletSvc, DefaultSettlementDays, logger)
	env.eventSvc = NewEventService(env.scope, env.posting, env.settlement, env.walletSvc, logger)
	env.payoutSvc = NewPayoutService(env.scope, env.posting, env.walletSvc, env.gateway, nil, shared.DefaultIdempotencyConfig(), logger)
	env.ridePayment = NewRidePaymentService(env.scope, env.posting, NewCommissionService(DefaultCommissionRate, nil, logger), env.settlement, env.walletSvc, nil, logger)
	env.integrity = NewIntegrityService(env.scope, logger)
	return env
}

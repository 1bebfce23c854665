package tier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/persistence"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db    *gorm.DB
	tx    *persistence.GormTransactor
	repos tier.Repositories
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	tx := persistence.NewGormTransactor(db,
		persistence.NewGormTierRepository(db),
		persistence.NewGormPendingClientRepository(db),
		persistence.NewGormApprovalRepository(db),
		persistence.NewGormActivityRepository(db),
		persistence.NewGormOpeningRequestStore(db, persistence.NewSchemaProbe(persistence.OpeningRequestTable, time.Minute)),
	)
	return &testEnv{db: db, tx: tx, repos: tx.Repositories()}
}

// fixedAccounts generates numbers from a frozen clock and a counting suffix
func fixedAccounts() *tier.AccountNumberGenerator {
	next := 0
	return tier.NewAccountNumberGenerator().
		WithClock(func() time.Time { return fixedNow }).
		WithRandom(func(int) int { next++; return next })
}

func (e *testEnv) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Count(&n).Error)
	return n
}

func identityRequest(name string) IdentityRequest {
	return IdentityRequest{
		NomRaisonSociale: name,
		Ville:            "Douala",
		Categorie:        tier.CategoryEntreprises,
		TypeTiers:        string(tier.TypeClient),
	}
}

func pendingRequest(name string) PendingClientRequest {
	credit := int64(500000)
	return PendingClientRequest{
		IdentityRequest: identityRequest(name),
		Opening: OpeningRequestDTO{
			DateCreation: "2025-01-18",
			Credit:       &credit,
			Motif:        "Ouverture",
		},
	}
}

// failingApprovals rejects every audit write
type failingApprovals struct {
	tier.ApprovalRepository
}

func (failingApprovals) Append(context.Context, *tier.ClientApproval) error {
	return errors.New("audit table unavailable")
}

// faultyTransactor runs the real transaction with a broken audit repository
type faultyTransactor struct {
	inner tier.Transactor
}

func (f faultyTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos tier.Repositories) error) error {
	return f.inner.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
		repos.Approvals = failingApprovals{repos.Approvals}
		return fn(ctx, repos)
	})
}

// failingActivities rejects every activity write
type failingActivities struct {
	tier.ActivityRepository
}

func (failingActivities) Append(context.Context, *tier.TierActivity) error {
	return shared.ErrOperationFailed
}

// Command seed fills a database with demo traites, tiers and pending clients.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	tierapp "github.com/traitedesk/backend/internal/application/tier"
	traiteapp "github.com/traitedesk/backend/internal/application/traite"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/config"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const seedUser = "seed"

func main() {
	var (
		traites   = flag.Int("traites", 50, "number of traites to create")
		tiers     = flag.Int("tiers", 20, "number of tiers to create")
		pending   = flag.Int("pending", 10, "number of account opening requests to submit")
		seed      = flag.Uint64("seed", 0, "faker seed, 0 for random")
		logLevel  = flag.String("log-level", "info", "log level")
		migrateDB = flag.Bool("migrate", false, "auto-migrate the schema before seeding (sqlite only)")
	)
	flag.Parse()

	log := logger.New(logger.Config{Level: *logLevel, Format: "console", Output: "stdout"})
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.App.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel), cfg.Log.SlowThreshold))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if *migrateDB || cfg.Database.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	openings := persistence.NewGormOpeningRequestStore(db.DB,
		persistence.NewSchemaProbe(persistence.OpeningRequestTable, cfg.Workflow.SchemaProbeTTL))
	transactor := persistence.NewGormTransactor(db.DB,
		persistence.NewGormTierRepository(db.DB),
		persistence.NewGormPendingClientRepository(db.DB),
		persistence.NewGormApprovalRepository(db.DB),
		persistence.NewGormActivityRepository(db.DB),
		openings,
	)

	s := &seeder{
		fixtures:  NewFixtures(*seed, time.Now()),
		traites:   traiteapp.NewService(persistence.NewGormTraiteRepository(db.DB), persistence.NewGormSequence(db.DB), traiteapp.WithLogger(log)),
		tiers:     tierapp.NewTierService(transactor, transactor.Repositories(), tierapp.WithLogger(log)),
		approvals: tierapp.NewApprovalService(transactor, transactor.Repositories(), cfg.Workflow.ArchiveOnReject, tierapp.WithLogger(log)),
		logger:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary := s.Run(ctx, *traites, *tiers, *pending)
	log.Info("Seeding finished",
		zap.Int("traites", summary.Traites),
		zap.Int("tiers", summary.Tiers),
		zap.Int("pending", summary.Pending),
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// TraiteCreator creates traites
type TraiteCreator interface {
	Create(ctx context.Context, req traiteapp.TraiteRequest) (*traiteapp.TraiteResponse, error)
}

// TierCreator creates tiers directly
type TierCreator interface {
	Create(ctx context.Context, userID string, req tierapp.IdentityRequest) (*tierapp.TierResponse, error)
}

// Reviewer drives the account opening workflow
type Reviewer interface {
	Submit(ctx context.Context, userID string, req tierapp.PendingClientRequest) (*tierapp.PendingClientResponse, error)
	Approve(ctx context.Context, id int64, userID string) (*tierapp.TierResponse, error)
	Reject(ctx context.Context, id int64, userID, reason string) error
}

// Summary counts what a run created
type Summary struct {
	Traites  int
	Tiers    int
	Pending  int
	Approved int
	Rejected int
	Failed   int
}

type seeder struct {
	fixtures  *Fixtures
	traites   TraiteCreator
	tiers     TierCreator
	approvals Reviewer
	logger    *zap.Logger
}

// Run creates the records through the application services. Failures are
// logged and counted; the run continues.
func (s *seeder) Run(ctx context.Context, traites, tiers, pending int) Summary {
	var sum Summary

	for i := 0; i < traites; i++ {
		if _, err := s.traites.Create(ctx, s.fixtures.Traite()); err != nil {
			s.fail(&sum, "traite", err)
			continue
		}
		sum.Traites++
	}

	for i := 0; i < tiers; i++ {
		typ := tier.TypeClient
		if i%3 == 2 {
			typ = tier.TypeFournisseur
		}
		if _, err := s.tiers.Create(ctx, seedUser, s.fixtures.Identity(typ)); err != nil {
			s.fail(&sum, "tier", err)
			continue
		}
		sum.Tiers++
	}

	for i := 0; i < pending; i++ {
		p, err := s.approvals.Submit(ctx, seedUser, s.fixtures.PendingClient())
		if err != nil {
			s.fail(&sum, "pending client", err)
			continue
		}
		sum.Pending++

		switch s.fixtures.Decision() {
		case DecisionApprove:
			if _, err := s.approvals.Approve(ctx, p.ID, seedUser); err != nil {
				s.fail(&sum, "approval", err)
				continue
			}
			sum.Approved++
		case DecisionReject:
			if err := s.approvals.Reject(ctx, p.ID, seedUser, s.fixtures.RejectReason()); err != nil {
				s.fail(&sum, "rejection", err)
				continue
			}
			sum.Rejected++
		}
	}
	return sum
}

func (s *seeder) fail(sum *Summary, what string, err error) {
	sum.Failed++
	s.logger.Warn("Seed record failed", zap.String("record", what), zap.Error(err))
}

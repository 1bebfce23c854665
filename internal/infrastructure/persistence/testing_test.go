package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/domain/traite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory sqlite database
func newTestDB(t *testing.T) *gorm.DB {
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

	require.NoError(t, AutoMigrate(db))
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestTraite(numero, name string, montant int64, emission time.Time) *traite.Traite {
	return &traite.Traite{
		Numero:           numero,
		NombreTraites:    1,
		DateEmission:     emission,
		Echeance:         emission.AddDate(0, 1, 0),
		Montant:          montant,
		NomRaisonSociale: name,
		Statut:           traite.StatusNonEchu,
		Origine:          traite.OrigineInterne,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func newTestIdentity(numero, name string) tier.Identity {
	return tier.Identity{
		NumeroCompte:     numero,
		NomRaisonSociale: name,
		Ville:            "Douala",
		Categorie:        "Entreprises",
		TypeTiers:        tier.TypeClient,
	}
}

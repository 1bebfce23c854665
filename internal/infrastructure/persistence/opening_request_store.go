package persistence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/traitedesk/backend/internal/domain/tier"
	"gorm.io/gorm"
)

// OpeningRequestTable is the optional account-opening table
const OpeningRequestTable = "account_opening_requests"

// DefaultSchemaProbeTTL is how long a probe result is trusted
const DefaultSchemaProbeTTL = 5 * time.Minute

// SchemaProbe caches the column set of one table. A table that does not
// exist is cached too, as an empty set.
type SchemaProbe struct {
	table string
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	exists    bool
	columns   map[string]bool
	checkedAt time.Time
}

// NewSchemaProbe creates a probe for table. A non-positive ttl uses DefaultSchemaProbeTTL.
func NewSchemaProbe(table string, ttl time.Duration) *SchemaProbe {
	if ttl <= 0 {
		ttl = DefaultSchemaProbeTTL
	}
	return &SchemaProbe{table: table, ttl: ttl, now: time.Now}
}

// Invalidate forces the next lookup to re-read the schema
func (p *SchemaProbe) Invalidate() {
	p.mu.Lock()
	p.checkedAt = time.Time{}
	p.mu.Unlock()
}

// Columns returns whether the table exists and its lower-cased column set
func (p *SchemaProbe) Columns(ctx context.Context, db *gorm.DB) (bool, map[string]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		return p.exists, p.columns, nil
	}

	migrator := db.WithContext(ctx).Migrator()
	exists := migrator.HasTable(p.table)
	columns := map[string]bool{}
	if exists {
		types, err := migrator.ColumnTypes(p.table)
		if err != nil {
			return false, nil, fmt.Errorf("probe columns of %s: %w", p.table, err)
		}
		for _, ct := range types {
			columns[strings.ToLower(ct.Name())] = true
		}
	}

	p.exists, p.columns, p.checkedAt = exists, columns, p.now()
	return exists, columns, nil
}

// GormOpeningRequestStore implements tier.OpeningRequestStore against a table
// whose presence and columns are discovered at runtime
type GormOpeningRequestStore struct {
	db    *gorm.DB
	probe *SchemaProbe
}

// NewGormOpeningRequestStore creates a store sharing the given probe
func NewGormOpeningRequestStore(db *gorm.DB, probe *SchemaProbe) *GormOpeningRequestStore {
	return &GormOpeningRequestStore{db: db, probe: probe}
}

// WithTx returns a store bound to the transaction; the probe cache is shared
func (s *GormOpeningRequestStore) WithTx(tx *gorm.DB) *GormOpeningRequestStore {
	return &GormOpeningRequestStore{db: tx, probe: s.probe}
}

// Probe exposes the schema cache so callers can invalidate it
func (s *GormOpeningRequestStore) Probe() *SchemaProbe {
	return s.probe
}

// HasField reports whether the table exists and has the column
func (s *GormOpeningRequestStore) HasField(ctx context.Context, name string) (bool, error) {
	exists, columns, err := s.probe.Columns(ctx, s.db)
	if err != nil {
		return false, err
	}
	return exists && columns[strings.ToLower(name)], nil
}

// WriteIfSupported inserts the request keeping only the columns the table has
func (s *GormOpeningRequestStore) WriteIfSupported(ctx context.Context, tierID int64, req tier.OpeningRequest) (bool, error) {
	exists, columns, err := s.probe.Columns(ctx, s.db)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	row := make(map[string]any)
	for col, v := range req.Columns() {
		if columns[col] {
			row[col] = v
		}
	}
	if columns["tier_id"] {
		row["tier_id"] = tierID
	}
	if columns["created_at"] {
		row["created_at"] = time.Now()
	}
	if len(row) == 0 {
		return false, nil
	}

	if err := s.db.WithContext(ctx).Table(OpeningRequestTable).Create(row).Error; err != nil {
		return false, fmt.Errorf("insert %s: %w", OpeningRequestTable, err)
	}
	return true, nil
}

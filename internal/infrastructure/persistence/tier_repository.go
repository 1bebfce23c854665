package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var tierSearchColumns = []string{
	"numero_compte",
	"nom_raison_sociale",
	"ville",
	"telephone",
	"email",
	"n_contribuable",
}

// GormTierRepository implements tier.TierRepository using GORM
type GormTierRepository struct {
	db *gorm.DB
}

// NewGormTierRepository creates a new GormTierRepository
func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormTierRepository) WithTx(tx *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: tx}
}

// FindByID finds a tier by its ID
func (r *GormTierRepository) FindByID(ctx context.Context, id int64) (*tier.Tier, error) {
	var model models.TierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the tiers that still exist among ids
func (r *GormTierRepository) FindByIDs(ctx context.Context, ids []int64) ([]tier.Tier, error) {
	if len(ids) == 0 {
		return []tier.Tier{}, nil
	}
	var rows []models.TierModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	tiers := make([]tier.Tier, len(rows))
	for i := range rows {
		tiers[i] = *rows[i].ToDomain()
	}
	return tiers, nil
}

// ExistsByNumeroCompte reports whether another tier holds the account number
func (r *GormTierRepository) ExistsByNumeroCompte(ctx context.Context, numero string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TierModel{}).Where("numero_compte = ?", numero)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of tiers and the total match count
func (r *GormTierRepository) List(ctx context.Context, filter tier.ListFilter) ([]tier.Tier, int64, error) {
	filter.Normalize()

	scoped := func() *gorm.DB {
		query := applyIdentitySearch(r.db.WithContext(ctx).Model(&models.TierModel{}), filter.Search)
		if filter.TypeTiers != "" {
			query = query.Where("type_tiers = ?", string(filter.TypeTiers))
		}
		if filter.Categorie != "" {
			query = query.Where("categorie = ?", filter.Categorie)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TierModel
	if err := scoped().
		Order(ValidateSortField(filter.OrderBy, TierSortFields, "nom_raison_sociale") + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	tiers := make([]tier.Tier, len(rows))
	for i := range rows {
		tiers[i] = *rows[i].ToDomain()
	}
	return tiers, total, nil
}

// Save creates the tier when it has no ID yet, otherwise overwrites it
func (r *GormTierRepository) Save(ctx context.Context, t *tier.Tier) error {
	model := models.TierModelFromDomain(t)
	db := r.db.WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(model).Error; err != nil {
			return translateWriteError(err)
		}
		t.ID = model.ID
		return nil
	}
	return translateWriteError(db.Save(model).Error)
}

// GormPendingClientRepository implements tier.PendingClientRepository using GORM
type GormPendingClientRepository struct {
	db *gorm.DB
}

// NewGormPendingClientRepository creates a new GormPendingClientRepository
func NewGormPendingClientRepository(db *gorm.DB) *GormPendingClientRepository {
	return &GormPendingClientRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormPendingClientRepository) WithTx(tx *gorm.DB) *GormPendingClientRepository {
	return &GormPendingClientRepository{db: tx}
}

// FindByID finds a pending client by its ID
func (r *GormPendingClientRepository) FindByID(ctx context.Context, id int64) (*tier.PendingClient, error) {
	var model models.PendingClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the pending clients that still exist among ids
func (r *GormPendingClientRepository) FindByIDs(ctx context.Context, ids []int64) ([]tier.PendingClient, error) {
	if len(ids) == 0 {
		return []tier.PendingClient{}, nil
	}
	var rows []models.PendingClientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	pending := make([]tier.PendingClient, len(rows))
	for i := range rows {
		pending[i] = *rows[i].ToDomain()
	}
	return pending, nil
}

// List returns one page of the review queue, oldest submission first by default
func (r *GormPendingClientRepository) List(ctx context.Context, filter tier.PendingFilter) ([]tier.PendingClient, int64, error) {
	filter.Normalize()

	scoped := func() *gorm.DB {
		query := applyIdentitySearch(r.db.WithContext(ctx).Model(&models.PendingClientModel{}), filter.Search)
		if filter.Status != "" {
			query = query.Where("status = ?", string(filter.Status))
		}
		if filter.CreatedBy != "" {
			query = query.Where("created_by = ?", filter.CreatedBy)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PendingClientModel
	if err := scoped().
		Order(ValidateSortField(filter.OrderBy, TierSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir)).
		Order("id ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	pending := make([]tier.PendingClient, len(rows))
	for i := range rows {
		pending[i] = *rows[i].ToDomain()
	}
	return pending, total, nil
}

// Save creates or overwrites a pending client
func (r *GormPendingClientRepository) Save(ctx context.Context, p *tier.PendingClient) error {
	model := models.PendingClientModelFromDomain(p)
	db := r.db.WithContext(ctx)
	if model.ID == 0 {
		if err := db.Create(model).Error; err != nil {
			return err
		}
		p.ID = model.ID
		return nil
	}
	return db.Save(model).Error
}

// Delete removes a pending client
func (r *GormPendingClientRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.PendingClientModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormApprovalRepository implements tier.ApprovalRepository using GORM
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewGormApprovalRepository creates a new GormApprovalRepository
func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormApprovalRepository) WithTx(tx *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: tx}
}

// Append writes an audit entry
func (r *GormApprovalRepository) Append(ctx context.Context, entry *tier.ClientApproval) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	model := models.ClientApprovalModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

// ListByUser returns a user's audit entries, newest first
func (r *GormApprovalRepository) ListByUser(ctx context.Context, userID string, filter shared.Filter) ([]tier.ClientApproval, int64, error) {
	filter.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ClientApprovalModel{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ClientApprovalModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]tier.ClientApproval, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

// GormActivityRepository implements tier.ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormActivityRepository) WithTx(tx *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: tx}
}

// Append stores an activity row
func (r *GormActivityRepository) Append(ctx context.Context, activity *tier.TierActivity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	model, err := models.TierActivityModelFromDomain(activity)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	activity.ID = model.ID
	return nil
}

// ListByTier returns the activity of one tier, newest first
func (r *GormActivityRepository) ListByTier(ctx context.Context, tierID int64) ([]tier.TierActivity, error) {
	var rows []models.TierActivityModel
	if err := r.db.WithContext(ctx).
		Where("tier_id = ?", tierID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	activities := make([]tier.TierActivity, 0, len(rows))
	for i := range rows {
		a, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, nil
}

func applyIdentitySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
	parts := make([]string, len(tierSearchColumns))
	args := make([]any, len(tierSearchColumns))
	for i, col := range tierSearchColumns {
		parts[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(parts, " OR ")+")", args...)
}

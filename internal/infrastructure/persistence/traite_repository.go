package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// traiteSearchColumns are matched with a case-insensitive substring search
var traiteSearchColumns = []string{
	"numero",
	"nom_raison_sociale",
	"motif",
	"domiciliation_bancaire",
	"rib",
	"commentaires",
	"montant_texte",
	"dates_texte",
}

// effectiveStatutSQL is the stored status with the overdue Non échu -> Échu
// rule applied. It takes the arguments returned by effectiveStatutArgs.
const effectiveStatutSQL = "CASE WHEN statut = ? AND echeance < ? THEN ? ELSE statut END"

func effectiveStatutArgs(today time.Time) []any {
	return []any{string(traite.StatusNonEchu), today, string(traite.StatusEchu)}
}

// asOfDay is the day the status rule is evaluated at, today when unset
func asOfDay(asOf time.Time) time.Time {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return dateOnly(asOf)
}

// GormTraiteRepository implements traite.TraiteRepository using GORM
type GormTraiteRepository struct {
	db *gorm.DB
}

// NewGormTraiteRepository creates a new GormTraiteRepository
func NewGormTraiteRepository(db *gorm.DB) *GormTraiteRepository {
	return &GormTraiteRepository{db: db}
}

// WithTx returns a new repository instance bound to the given transaction
func (r *GormTraiteRepository) WithTx(tx *gorm.DB) *GormTraiteRepository {
	return &GormTraiteRepository{db: tx}
}

// FindByID finds a traite by its ID
func (r *GormTraiteRepository) FindByID(ctx context.Context, id int64) (*traite.Traite, error) {
	var model models.TraiteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByNumero reports whether another traite already uses numero
func (r *GormTraiteRepository) ExistsByNumero(ctx context.Context, numero string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.TraiteModel{}).Where("numero = ?", numero)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of traites matching the filter and the total match count
func (r *GormTraiteRepository) List(ctx context.Context, filter traite.ListFilter) ([]traite.Traite, int64, error) {
	filter.Normalize()

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.TraiteModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, TraiteSortFields, traite.DefaultSortField(filter.Alpha != ""))
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.TraiteModel
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.TraiteModel{}), filter).
		Order(orderBy + " " + orderDir).
		Order("id " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	traites := make([]traite.Traite, len(rows))
	for i := range rows {
		traites[i] = *rows[i].ToDomain()
	}
	return traites, total, nil
}

// Save creates the traite when it has no ID yet, otherwise overwrites it
func (r *GormTraiteRepository) Save(ctx context.Context, t *traite.Traite) error {
	model := models.TraiteModelFromDomain(t)
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

// Delete removes a traite
func (r *GormTraiteRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.TraiteModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LastID returns the highest traite id, zero for an empty table
func (r *GormTraiteRepository) LastID(ctx context.Context) (int64, error) {
	var last int64
	if err := r.db.WithContext(ctx).
		Model(&models.TraiteModel{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last, nil
}

func (r *GormTraiteRepository) applyFilter(query *gorm.DB, filter traite.ListFilter) *gorm.DB {
	today := asOfDay(filter.AsOf)

	if filter.Search != "" {
		sql, args := traiteSearchClause(traite.ParseSearch(filter.Search), today)
		query = query.Where(sql, args...)
	}

	switch filter.Alpha {
	case "":
	case traite.AlphaOther:
		query = query.Where("UPPER(SUBSTR(nom_raison_sociale, 1, 1)) NOT BETWEEN 'A' AND 'Z'")
	default:
		query = query.Where("UPPER(SUBSTR(nom_raison_sociale, 1, 1)) = ?", filter.Alpha)
	}

	switch filter.Statut {
	case "":
	case traite.StatusEchu:
		query = query.Where("(statut = ? OR (statut = ? AND echeance < ?))",
			string(traite.StatusEchu), string(traite.StatusNonEchu), today)
	case traite.StatusNonEchu:
		query = query.Where("statut = ? AND echeance >= ?", string(traite.StatusNonEchu), today)
	default:
		query = query.Where("statut = ?", string(filter.Statut))
	}
	if filter.DateFrom != nil {
		query = query.Where("date_emission >= ?", dateOnly(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("date_emission <= ?", dateOnly(*filter.DateTo))
	}
	return query
}

// traiteSearchClause builds the OR group for a search box value. The status
// is matched on its effective label at today.
func traiteSearchClause(terms traite.SearchTerms, today time.Time) (string, []any) {
	pattern := "%" + escapeLike(strings.ToLower(terms.Text)) + "%"

	parts := make([]string, 0, len(traiteSearchColumns)+4)
	args := make([]any, 0, len(traiteSearchColumns)+8)
	for _, col := range traiteSearchColumns {
		parts = append(parts, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	parts = append(parts, "LOWER("+effectiveStatutSQL+") LIKE ? ESCAPE '\\'")
	args = append(append(args, effectiveStatutArgs(today)...), pattern)
	if terms.Amount != nil {
		parts = append(parts, "montant = ?")
		args = append(args, *terms.Amount)
	}
	if terms.Date != nil {
		d := dateOnly(*terms.Date)
		parts = append(parts, "date_emission = ?", "echeance = ?")
		args = append(args, d, d)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

package tier

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Import limits
const (
	MaxImportRows   = 5000
	MaxImportErrors = 100
)

var importRequiredColumns = []string{"nom_raison_sociale", "categorie"}

var importAliases = map[string][]string{
	"nom_raison_sociale": {"raison_sociale", "nom", "client"},
	"numero_compte":      {"compte", "n_compte", "numero"},
	"type_tiers":         {"type"},
	"adresse_geo_1":      {"adresse", "adresse_1"},
	"adresse_geo_2":      {"adresse_2"},
	"n_contribuable":     {"contribuable", "niu"},
}

// ImportCSV creates one tier per data row. Generated account numbers are
// unique across the batch as well as against stored tiers. Type defaults to
// Client when the column is absent or blank.
func (s *TierService) ImportCSV(ctx context.Context, userID string, r io.Reader) (*csvimport.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tier", "import")
	defer span.End()

	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		return nil, fileError(err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, fileError(err.Error())
	}
	var missing []string
	for _, col := range importRequiredColumns {
		if !hasColumn(parser, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fileError("missing required columns: " + strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows(MaxImportRows)
	if err != nil {
		return nil, fileError(err.Error())
	}

	result := &csvimport.Result{TotalRows: len(rows)}
	collected := csvimport.NewErrorCollection(MaxImportErrors)
	reserved := make(map[string]bool)

	for _, row := range rows {
		t, err := tier.NewTier(rowToIdentity(row))
		if err == nil {
			err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos tier.Repositories) error {
				if err := assignAccountNumber(ctx, repos.Tiers, s.accounts, t, reserved); err != nil {
					return err
				}
				return repos.Tiers.Save(ctx, t)
			})
		}
		if err != nil {
			result.Failed++
			collectRowError(collected, row.LineNumber, err)
			continue
		}
		reserved[t.NumeroCompte] = true
		s.recordActivity(ctx, s.repos.Activities, tier.NewCreationActivity(t, userID))
		result.Imported++
		result.CreatedIDs = append(result.CreatedIDs, t.ID)
	}
	result.SetErrors(collected)

	s.metrics.ObserveImport("tiers", result.Imported, result.Failed)
	telemetry.SetAttributes(span, "import.rows", result.TotalRows, "import.failed", result.Failed)
	s.log(ctx).Info("Tier import finished",
		zap.Int("rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func hasColumn(parser *csvimport.CSVParser, name string) bool {
	if parser.HasHeader(name) {
		return true
	}
	for _, alias := range importAliases[name] {
		if parser.HasHeader(alias) {
			return true
		}
	}
	return false
}

func column(row *csvimport.Row, name string) string {
	if v := row.Get(name); v != "" {
		return v
	}
	for _, alias := range importAliases[name] {
		if v := row.Get(alias); v != "" {
			return v
		}
	}
	return ""
}

func rowToIdentity(row *csvimport.Row) tier.Identity {
	typ := tier.Type(column(row, "type_tiers"))
	if typ == "" {
		typ = tier.TypeClient
	}
	return tier.Identity{
		NumeroCompte:     column(row, "numero_compte"),
		NomRaisonSociale: column(row, "nom_raison_sociale"),
		BP:               column(row, "bp"),
		Ville:            column(row, "ville"),
		Pays:             column(row, "pays"),
		AdresseGeo1:      column(row, "adresse_geo_1"),
		AdresseGeo2:      column(row, "adresse_geo_2"),
		Telephone:        column(row, "telephone"),
		Email:            column(row, "email"),
		Categorie:        column(row, "categorie"),
		NContribuable:    column(row, "n_contribuable"),
		TypeTiers:        typ,
	}
}

func collectRowError(collected *csvimport.ErrorCollection, line int, err error) {
	var verrs shared.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, f := range verrs.Fields() {
			collected.Add(csvimport.RowError{Row: line, Column: f.Field, Code: csvimport.ErrCodeImportValidation, Message: f.Message})
		}
	case errors.Is(err, shared.ErrAlreadyExists):
		collected.Add(csvimport.RowError{Row: line, Column: "numero_compte", Code: csvimport.ErrCodeImportDuplicate, Message: "numero_compte already exists"})
	default:
		collected.Add(csvimport.RowError{Row: line, Code: csvimport.ErrCodeImportFailed, Message: err.Error()})
	}
}

func fileError(msg string) error {
	errs := shared.ValidationErrors{}
	errs.Add("file", msg)
	return errs
}

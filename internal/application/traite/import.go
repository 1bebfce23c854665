package traite

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Import limits
const (
	MaxImportRows   = 5000
	MaxImportErrors = 100
)

// importRequiredColumns must be present in the header row
var importRequiredColumns = []string{"nom_raison_sociale", "montant", "date_emission", "echeance"}

// importAliases maps alternative spreadsheet headers to canonical columns
var importAliases = map[string][]string{
	"nom_raison_sociale":     {"raison_sociale", "nom", "client"},
	"date_emission":          {"date_d_emission", "emission"},
	"domiciliation_bancaire": {"domiciliation", "banque"},
	"origine_traite":         {"origine"},
	"nombre_traites":         {"nombre", "nb_traites"},
}

// ImportCSV creates one traite per data row. Rows are independent: a failing
// row is reported and the rest are still imported. Blank numeros are numbered
// like any create.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*csvimport.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "traite", "import")
	defer span.End()

	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		return nil, importError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, importError(err)
	}
	if missing := missingColumns(parser); len(missing) > 0 {
		errs := shared.ValidationErrors{}
		errs.Add("file", "missing required columns: "+strings.Join(missing, ", "))
		return nil, errs
	}

	rows, err := parser.ReadAllRows(MaxImportRows)
	if err != nil {
		return nil, importError(err)
	}

	result := &csvimport.Result{TotalRows: len(rows)}
	collected := csvimport.NewErrorCollection(MaxImportErrors)

	for _, row := range rows {
		in, ok := rowToInput(row, collected)
		if !ok {
			result.Failed++
			continue
		}
		t, err := s.create(ctx, in)
		if err != nil {
			result.Failed++
			collectRowError(collected, row.LineNumber, err)
			continue
		}
		result.Imported++
		result.CreatedIDs = append(result.CreatedIDs, t.ID)
	}
	result.SetErrors(collected)

	s.metrics.ObserveImport("traites", result.Imported, result.Failed)
	telemetry.SetAttributes(span, "import.rows", result.TotalRows, "import.failed", result.Failed)
	s.log(ctx).Info("Traite import finished",
		zap.Int("rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func missingColumns(parser *csvimport.CSVParser) []string {
	var missing []string
	for _, col := range importRequiredColumns {
		if parser.HasHeader(col) {
			continue
		}
		found := false
		for _, alias := range importAliases[col] {
			if parser.HasHeader(alias) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	return missing
}

// column returns the value of a canonical column or its first non-empty alias
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

func rowToInput(row *csvimport.Row, collected *csvimport.ErrorCollection) (traite.Input, bool) {
	ok := true
	line := row.LineNumber

	in := traite.Input{
		Numero:                column(row, "numero"),
		NomRaisonSociale:      column(row, "nom_raison_sociale"),
		DomiciliationBancaire: column(row, "domiciliation_bancaire"),
		RIB:                   column(row, "rib"),
		Motif:                 column(row, "motif"),
		Commentaires:          column(row, "commentaires"),
		Statut:                canonicalStatus(column(row, "statut")),
		Origine:               column(row, "origine_traite"),
		Agios:                 column(row, "agios"),
	}

	if raw := column(row, "montant"); raw == "" {
		collected.AddRequiredError(line, "montant")
		ok = false
	} else if amount, err := csvimport.ParseAmount(raw); err != nil {
		collected.AddFormatError(line, "montant", "a whole amount such as 1 500 000", raw)
		ok = false
	} else {
		in.Montant = amount
	}

	for _, field := range []string{"date_emission", "echeance"} {
		raw := column(row, field)
		if raw == "" {
			collected.AddRequiredError(line, field)
			ok = false
			continue
		}
		d, err := csvimport.ParseDate(raw)
		if err != nil {
			collected.AddFormatError(line, field, "DD/MM/YYYY or YYYY-MM-DD", raw)
			ok = false
			continue
		}
		if field == "date_emission" {
			in.DateEmission = d
		} else {
			in.Echeance = d
		}
	}

	n, err := csvimport.ParseInt(column(row, "nombre_traites"), 1)
	if err != nil {
		collected.AddFormatError(line, "nombre_traites", "a whole number", column(row, "nombre_traites"))
		ok = false
	}
	in.NombreTraites = n

	return in, ok
}

// collectRowError turns a create failure into row errors
func collectRowError(collected *csvimport.ErrorCollection, line int, err error) {
	var verrs shared.ValidationErrors
	if errors.As(err, &verrs) {
		for _, f := range verrs.Fields() {
			collected.Add(csvimport.RowError{Row: line, Column: f.Field, Code: csvimport.ErrCodeImportValidation, Message: f.Message})
		}
		return
	}
	if errors.Is(err, shared.ErrAlreadyExists) {
		collected.Add(csvimport.RowError{Row: line, Column: "numero", Code: csvimport.ErrCodeImportDuplicate, Message: "numero already exists"})
		return
	}
	collected.Add(csvimport.RowError{Row: line, Code: csvimport.ErrCodeImportFailed, Message: err.Error()})
}

// importError reports a file-level problem as a validation failure
func importError(err error) error {
	errs := shared.ValidationErrors{}
	errs.Add("file", err.Error())
	return errs
}

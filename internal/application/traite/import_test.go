package traite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/csvimport"
)

func TestService_ImportCSV(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)

	csv := strings.Join([]string{
		"Numéro;Nom raison sociale;Montant;Date d'émission;Échéance;Nombre traites;Statut",
		";Garage Central;1 500 000;15/01/2025;31/03/2025;3;",
		"TR-MANUEL;Alpha;250000;2025-01-15;2025-02-15;;payé",
		";Beta;abc;15/01/2025;15/02/2025;;",
		"TR-DUP;Gamma;1000;15/01/2025;15/02/2025;;",
		";;1000;15/01/2025;15/02/2025;;",
	}, "\n")

	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(100), nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000100", int64(0)).Return(false, nil)
	repo.On("ExistsByNumero", mock.Anything, "TR-MANUEL", int64(0)).Return(false, nil)
	repo.On("ExistsByNumero", mock.Anything, "TR-DUP", int64(0)).Return(true, nil)

	var saved []*traite.Traite
	repo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		tr := args.Get(1).(*traite.Traite)
		tr.ID = int64(len(saved) + 1)
		saved = append(saved, tr)
	}).Return(nil)

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, []int64{1, 2}, result.CreatedIDs)

	require.Len(t, saved, 2)
	assert.Equal(t, "TR-202501-000100", saved[0].Numero)
	assert.Equal(t, 3, saved[0].NombreTraites)
	assert.Equal(t, int64(1500000), saved[0].Montant)
	assert.Equal(t, traite.StatusPaye, saved[1].Statut)
	assert.Equal(t, 1, saved[1].NombreTraites)

	codes := map[int]string{}
	for _, e := range result.Errors {
		codes[e.Row] = e.Code
	}
	assert.Equal(t, csvimport.ErrCodeImportInvalidFormat, codes[4])
	assert.Equal(t, csvimport.ErrCodeImportDuplicate, codes[5])
	assert.Equal(t, csvimport.ErrCodeImportValidation, codes[6])
}

func TestService_ImportCSV_FileErrors(t *testing.T) {
	svc := newTestService(new(MockTraiteRepository), nil)

	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty file", "", "empty"},
		{"missing columns", "numero,montant\nTR-1,10\n", "missing required columns: nom_raison_sociale, date_emission, echeance"},
		{"header only", "nom_raison_sociale,montant,date_emission,echeance\n", "no data rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCSV(context.Background(), strings.NewReader(tt.data))

			var verrs shared.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs["file"], tt.want)
		})
	}
}

package traite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
)

// =============================================================================
// Mocks
// =============================================================================

type MockTraiteRepository struct {
	mock.Mock
}

func (m *MockTraiteRepository) FindByID(ctx context.Context, id int64) (*traite.Traite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*traite.Traite), args.Error(1)
}

func (m *MockTraiteRepository) ExistsByNumero(ctx context.Context, numero string, excludeID int64) (bool, error) {
	args := m.Called(ctx, numero, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTraiteRepository) List(ctx context.Context, filter traite.ListFilter) ([]traite.Traite, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]traite.Traite), args.Get(1).(int64), args.Error(2)
}

func (m *MockTraiteRepository) Save(ctx context.Context, t *traite.Traite) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTraiteRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTraiteRepository) LastID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockSequence struct {
	mock.Mock
}

func (m *MockSequence) Next(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

var fixedNow = time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

func newTestService(repo *MockTraiteRepository, seq traite.SequenceGenerator) *Service {
	return NewService(repo, seq, WithClock(func() time.Time { return fixedNow }))
}

func validRequest() TraiteRequest {
	return TraiteRequest{
		NombreTraites:    3,
		DateEmission:     "2025-01-15",
		Echeance:         "31/03/2025",
		Montant:          1500000,
		NomRaisonSociale: "Garage Central",
	}
}

func saveAssignsID(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		args.Get(1).(*traite.Traite).ID = id
	}
}

// =============================================================================
// Create
// =============================================================================

func TestService_Create_UsesSequence(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)
	ctx := context.Background()

	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(7), nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000007", int64(0)).Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.AnythingOfType("*traite.Traite")).Run(saveAssignsID(12)).Return(nil).Once()

	resp, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(12), resp.ID)
	assert.Equal(t, "TR-202501-000007", resp.Numero)
	assert.Equal(t, "2025-03-31", resp.Echeance)
	assert.Equal(t, "Non échu", resp.Statut)
	assert.Equal(t, "Interne", resp.OrigineTraite)
	assert.Equal(t, "1 500 000", resp.MontantFormate)
	repo.AssertExpectations(t)
	seq.AssertExpectations(t)
}

func TestService_Create_RetriesOnCollision(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)

	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(1), nil).Once()
	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(2), nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000001", int64(0)).Return(true, nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000002", int64(0)).Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Run(saveAssignsID(1)).Return(nil).Once()

	resp, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "TR-202501-000002", resp.Numero)
}

func TestService_Create_FallsBackToLastID(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)

	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(0), errors.New("redis down")).Once()
	repo.On("LastID", mock.Anything).Return(int64(41), nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000042", int64(0)).Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "TR-202501-000042", resp.Numero)
}

func TestService_Create_WithoutSequence(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	repo.On("LastID", mock.Anything).Return(int64(0), nil)
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000001", int64(0)).Return(true, nil).Once()
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000002", int64(0)).Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "TR-202501-000002", resp.Numero)
}

func TestService_Create_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)

	seq.On("Next", mock.Anything, traite.SequenceName).Return(int64(1), nil)
	repo.On("ExistsByNumero", mock.Anything, mock.Anything, int64(0)).Return(true, nil)

	_, err := svc.Create(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOperationFailed)
	seq.AssertNumberOfCalls(t, "Next", maxNumeroAttempts)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Create_KeepsExplicitNumero(t *testing.T) {
	repo := new(MockTraiteRepository)
	seq := new(MockSequence)
	svc := newTestService(repo, seq)

	req := validRequest()
	req.Numero = " MANUEL-1 "
	repo.On("ExistsByNumero", mock.Anything, "MANUEL-1", int64(0)).Return(false, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "MANUEL-1", resp.Numero)
	seq.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestService_Create_DuplicateNumero(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	req := validRequest()
	req.Numero = "TR-202501-000001"
	repo.On("ExistsByNumero", mock.Anything, "TR-202501-000001", int64(0)).Return(true, nil).Once()

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestService_Create_ValidationErrors(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	tests := []struct {
		name   string
		mutate func(*TraiteRequest)
		field  string
	}{
		{"missing name", func(r *TraiteRequest) { r.NomRaisonSociale = " " }, "nom_raison_sociale"},
		{"bad date", func(r *TraiteRequest) { r.Echeance = "31-31-2025" }, "echeance"},
		{"negative amount", func(r *TraiteRequest) { r.Montant = -1 }, "montant"},
		{"unknown status", func(r *TraiteRequest) { r.Statut = "perdu" }, "statut"},
		{"bad agios", func(r *TraiteRequest) { r.Agios = "Banque" }, "agios"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)

			var verrs shared.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs, tt.field)
		})
	}
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestTraiteRequest_ToInput(t *testing.T) {
	req := validRequest()
	req.NombreTraites = 0
	req.Statut = "echu"

	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, 1, in.NombreTraites)
	assert.Equal(t, "Échu", in.Statut)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), in.Echeance)
}

// =============================================================================
// Read
// =============================================================================

func storedTraite(id int64, echeance time.Time, statut traite.Status) *traite.Traite {
	return &traite.Traite{
		ID:               id,
		Numero:           "TR-202412-000001",
		NombreTraites:    1,
		DateEmission:     echeance.AddDate(0, -1, 0),
		Echeance:         echeance,
		Montant:          250000,
		NomRaisonSociale: "Alpha",
		Statut:           statut,
		Origine:          traite.OrigineInterne,
	}
}

func TestService_Get_CoercesOverdue(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	yesterday := fixedNow.AddDate(0, 0, -1)
	repo.On("FindByID", mock.Anything, int64(1)).Return(storedTraite(1, yesterday, traite.StatusNonEchu), nil)
	repo.On("FindByID", mock.Anything, int64(2)).Return(storedTraite(2, fixedNow, traite.StatusNonEchu), nil)
	repo.On("FindByID", mock.Anything, int64(3)).Return(storedTraite(3, yesterday, traite.StatusPaye), nil)
	repo.On("FindByID", mock.Anything, int64(4)).Return(nil, shared.ErrNotFound)

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Échu", resp.Statut)

	resp, err = svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Non échu", resp.Statut, "due today is not overdue")

	resp, err = svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Payé", resp.Statut)

	_, err = svc.Get(context.Background(), 4)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_List(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	rows := []traite.Traite{
		*storedTraite(1, fixedNow.AddDate(0, -1, 0), traite.StatusNonEchu),
		*storedTraite(2, fixedNow.AddDate(0, 1, 0), traite.StatusNonEchu),
	}
	repo.On("List", mock.Anything, mock.MatchedBy(func(f traite.ListFilter) bool {
		return f.Page == 1 && f.PageSize == 100 && f.OrderBy == "nom_raison_sociale" && f.Alpha == "G" &&
			f.AsOf.Equal(fixedNow)
	})).Return(rows, int64(230), nil)

	filter := traite.ListFilter{Alpha: "g"}
	filter.PageSize = 500
	filter.Page = -3

	page, err := svc.List(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, int64(230), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Échu", page.Items[0].Statut)
	assert.Equal(t, "Non échu", page.Items[1].Statut)
}

func TestService_List_RepositoryError(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)
	repo.On("List", mock.Anything, mock.Anything).Return([]traite.Traite(nil), int64(0), errors.New("db down"))

	_, err := svc.List(context.Background(), traite.ListFilter{})
	assert.EqualError(t, err, "db down")
}

// =============================================================================
// Update / status / delete
// =============================================================================

func TestService_Update(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	t.Run("blank numero keeps the current one", func(t *testing.T) {
		repo.On("FindByID", mock.Anything, int64(5)).Return(storedTraite(5, fixedNow, traite.StatusNonEchu), nil).Once()
		repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		resp, err := svc.Update(ctx, 5, validRequest())
		require.NoError(t, err)
		assert.Equal(t, "TR-202412-000001", resp.Numero)
		assert.Equal(t, "Garage Central", resp.NomRaisonSociale)
		assert.Equal(t, int64(1500000), resp.Montant)
	})

	t.Run("numero taken by another traite", func(t *testing.T) {
		req := validRequest()
		req.Numero = "TR-OTHER"
		repo.On("FindByID", mock.Anything, int64(6)).Return(storedTraite(6, fixedNow, traite.StatusNonEchu), nil).Once()
		repo.On("ExistsByNumero", mock.Anything, "TR-OTHER", int64(6)).Return(true, nil).Once()

		_, err := svc.Update(ctx, 6, req)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("missing traite", func(t *testing.T) {
		repo.On("FindByID", mock.Anything, int64(7)).Return(nil, shared.ErrNotFound).Once()

		_, err := svc.Update(ctx, 7, validRequest())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)
	ctx := context.Background()

	repo.On("FindByID", mock.Anything, int64(1)).Return(storedTraite(1, fixedNow, traite.StatusImpaye), nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(tr *traite.Traite) bool {
		return tr.Statut == traite.StatusPaye
	})).Return(nil).Once()

	resp, err := svc.UpdateStatus(ctx, 1, "PAYE")
	require.NoError(t, err)
	assert.Equal(t, "Payé", resp.Statut)

	_, err = svc.UpdateStatus(ctx, 1, "archivé")
	var verrs shared.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "statut")
	repo.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	repo := new(MockTraiteRepository)
	svc := newTestService(repo, nil)

	repo.On("Delete", mock.Anything, int64(1)).Return(nil).Once()
	repo.On("Delete", mock.Anything, int64(2)).Return(shared.ErrNotFound).Once()

	assert.NoError(t, svc.Delete(context.Background(), 1))
	assert.ErrorIs(t, svc.Delete(context.Background(), 2), shared.ErrNotFound)
}

package traite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/traite"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// maxNumeroAttempts bounds the retries when a generated numero is taken
const maxNumeroAttempts = 5

// ErrNumeroExists is returned when an explicit numero is already used
var ErrNumeroExists = shared.NewDomainError(shared.ErrAlreadyExists.Code, "A traite with this numero already exists")

// Service handles traite business operations
type Service struct {
	repo     traite.TraiteRepository
	sequence traite.SequenceGenerator
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records created traites and import rows
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a traite Service. sequence may be nil, in which case
// numbers derive from the highest stored id.
func NewService(repo traite.TraiteRepository, sequence traite.SequenceGenerator, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		sequence: sequence,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Create validates the request, assigns a numero when none is given and saves the traite
func (s *Service) Create(ctx context.Context, req TraiteRequest) (*TraiteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "traite", "create")
	defer span.End()

	in, err := req.ToInput()
	if err != nil {
		return nil, err
	}
	t, err := s.create(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTraiteID, t.ID, telemetry.SpanAttrTraiteNumero, t.Numero)

	resp := ToTraiteResponse(t)
	return &resp, nil
}

func (s *Service) create(ctx context.Context, in traite.Input) (*traite.Traite, error) {
	t, err := traite.NewTraite(in)
	if err != nil {
		return nil, err
	}

	if t.HasNumero() {
		exists, err := s.repo.ExistsByNumero(ctx, t.Numero, 0)
		if err != nil {
			return nil, fmt.Errorf("check numero: %w", err)
		}
		if exists {
			return nil, ErrNumeroExists
		}
	} else if err := s.assignNumero(ctx, t); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.metrics.ObserveTraiteCreated()
	s.log(ctx).Info("Traite created",
		zap.Int64("traite_id", t.ID),
		zap.String("numero", t.Numero),
		zap.Int64("montant", t.Montant),
	)
	return t, nil
}

// assignNumero draws numbers until one is free
func (s *Service) assignNumero(ctx context.Context, t *traite.Traite) error {
	for attempt := range maxNumeroAttempts {
		numero, err := s.nextNumero(ctx, attempt)
		if err != nil {
			return err
		}
		exists, err := s.repo.ExistsByNumero(ctx, numero, 0)
		if err != nil {
			return fmt.Errorf("check numero: %w", err)
		}
		if !exists {
			t.AssignNumero(numero)
			return nil
		}
		s.log(ctx).Warn("Generated numero already taken, retrying",
			zap.String("numero", numero),
			zap.Int("attempt", attempt+1),
		)
	}
	return shared.OperationFailed(errors.New("could not allocate a free traite numero"))
}

// nextNumero takes the next sequence value, or derives one from the last id
// when the sequence is unavailable
func (s *Service) nextNumero(ctx context.Context, attempt int) (string, error) {
	now := s.now()
	if s.sequence != nil {
		seq, err := s.sequence.Next(ctx, traite.SequenceName)
		if err == nil {
			return traite.FormatNumero(seq, now), nil
		}
		s.log(ctx).Warn("Numbering sequence unavailable, falling back to last id", zap.Error(err))
	}
	last, err := s.repo.LastID(ctx)
	if err != nil {
		return "", fmt.Errorf("read last traite id: %w", err)
	}
	return traite.GenerateNumero(last+int64(attempt), now), nil
}

// Get returns one traite with its read-time status applied
func (s *Service) Get(ctx context.Context, id int64) (*TraiteResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Coerce(s.now())
	resp := ToTraiteResponse(t)
	return &resp, nil
}

// List returns one page of traites. Every row gets the read-time status rule.
func (s *Service) List(ctx context.Context, filter traite.ListFilter) (shared.Paginated[TraiteResponse], error) {
	filter.Normalize()
	now := s.now()
	filter.AsOf = now

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return shared.Paginated[TraiteResponse]{}, err
	}

	items := make([]TraiteResponse, len(rows))
	for i := range rows {
		rows[i].Coerce(now)
		items[i] = ToTraiteResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update replaces the editable fields of a traite. A blank numero keeps the current one.
func (s *Service) Update(ctx context.Context, id int64, req TraiteRequest) (*TraiteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "traite", "update", telemetry.SpanAttrTraiteID, id)
	defer span.End()

	in, err := req.ToInput()
	if err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if numero := in.Numero; numero != "" && numero != t.Numero {
		exists, err := s.repo.ExistsByNumero(ctx, numero, id)
		if err != nil {
			return nil, fmt.Errorf("check numero: %w", err)
		}
		if exists {
			return nil, ErrNumeroExists
		}
	}

	if err := t.Update(in); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.log(ctx).Info("Traite updated", zap.Int64("traite_id", t.ID), zap.String("numero", t.Numero))
	resp := ToTraiteResponse(t)
	return &resp, nil
}

// UpdateStatus sets the status. Labels are matched ignoring case and accents.
func (s *Service) UpdateStatus(ctx context.Context, id int64, label string) (*TraiteResponse, error) {
	status, ok := traite.ParseStatus(label)
	if !ok {
		errs := shared.ValidationErrors{}
		errs.Add("statut", "must be one of: Non échu, Échu, Impayé, Rejeté, Payé")
		return nil, errs
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := t.Statut
	if err := t.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, err
	}

	s.log(ctx).Info("Traite status changed",
		zap.Int64("traite_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	resp := ToTraiteResponse(t)
	return &resp, nil
}

// Delete removes a traite
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx).Info("Traite deleted", zap.Int64("traite_id", id))
	return nil
}

// Find returns the stored traite, for callers that need the domain entity
func (s *Service) Find(ctx context.Context, id int64) (*traite.Traite, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Coerce(s.now())
	return t, nil
}

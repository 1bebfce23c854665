package tier

import (
	"context"
	"fmt"

	"github.com/traitedesk/backend/internal/domain/shared"
	"github.com/traitedesk/backend/internal/domain/tier"
)

// ErrAccountNumberExists is returned when an explicit numero_compte is taken
var ErrAccountNumberExists = shared.NewDomainError(shared.ErrAlreadyExists.Code, "A tier with this numero_compte already exists")

// assignAccountNumber applies the numero_compte rule to t before it is saved:
// an explicit number must be free, a blank one is generated. reserved holds
// numbers handed out earlier in the same batch and may be nil.
func assignAccountNumber(ctx context.Context, tiers tier.TierRepository, gen *tier.AccountNumberGenerator, t *tier.Tier, reserved map[string]bool) error {
	if t.NumeroCompte != "" {
		if reserved[t.NumeroCompte] {
			return ErrAccountNumberExists
		}
		exists, err := tiers.ExistsByNumeroCompte(ctx, t.NumeroCompte, t.ID)
		if err != nil {
			return fmt.Errorf("check numero_compte: %w", err)
		}
		if exists {
			return ErrAccountNumberExists
		}
		return nil
	}

	numero, err := gen.Generate(ctx, t.NomRaisonSociale, func(ctx context.Context, candidate string) (bool, error) {
		if reserved[candidate] {
			return true, nil
		}
		return tiers.ExistsByNumeroCompte(ctx, candidate, 0)
	})
	if err != nil {
		return err
	}
	t.NumeroCompte = numero
	return nil
}

package traite

import (
	"context"
	"fmt"
	"time"
)

// NumeroPrefix starts every generated traite number
const NumeroPrefix = "TR"

// SequenceName is the counter used for traite numbers
const SequenceName = "traite_numero"

// GenerateNumero formats TR-YYYYMM-NNNNNN from the last known id.
// Unknown (negative) ids count as zero.
func GenerateNumero(lastKnownID int64, now time.Time) string {
	if lastKnownID < 0 {
		lastKnownID = 0
	}
	return FormatNumero(lastKnownID+1, now)
}

// FormatNumero formats an already-issued sequence value
func FormatNumero(seq int64, now time.Time) string {
	return fmt.Sprintf("%s-%s-%06d", NumeroPrefix, now.Format("200601"), seq)
}

// SequenceGenerator issues strictly increasing values, safe under concurrent callers
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

package shared

// LabelCount is one GROUP BY bucket of a dashboard aggregate
type LabelCount struct {
	Label string
	Total int64
}

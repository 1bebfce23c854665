package report

import "time"

// MonthLayout keys the monthly series
const MonthLayout = "2006-01"

// SeriesMonths is the length of the monthly series
const SeriesMonths = 12

// LabelOther collects labels outside the fixed palette
const LabelOther = "Autres"

// MonthlyPoint is one month of a series
type MonthlyPoint struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Breakdown is one slice of a chart
type Breakdown struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
	Color string `json:"color"`
}

// TraiteStats is the traite dashboard payload
type TraiteStats struct {
	Total               int64          `json:"total"`
	Today               int64          `json:"today"`
	ThisMonth           int64          `json:"this_month"`
	Echu                int64          `json:"echu"`
	TotalMontant        int64          `json:"total_montant"`
	TotalMontantFormate string         `json:"total_montant_formate"`
	Monthly             []MonthlyPoint `json:"monthly"`
	ByStatus            []Breakdown    `json:"by_status"`
	Error               string         `json:"error,omitempty"`
}

// ClientStats is the client dashboard payload
type ClientStats struct {
	Total        int64          `json:"total"`
	NewToday     int64          `json:"new_today"`
	NewThisMonth int64          `json:"new_this_month"`
	Monthly      []MonthlyPoint `json:"monthly"`
	ByCategory   []Breakdown    `json:"by_category"`
	Error        string         `json:"error,omitempty"`
}

// window holds the day and month boundaries of one stats request
type window struct {
	today, tomorrow       time.Time
	monthStart, nextMonth time.Time
	seriesStart           time.Time
}

func newWindow(now time.Time) window {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return window{
		today:       today,
		tomorrow:    today.AddDate(0, 0, 1),
		monthStart:  monthStart,
		nextMonth:   monthStart.AddDate(0, 1, 0),
		seriesStart: monthStart.AddDate(0, -(SeriesMonths - 1), 0),
	}
}

// series buckets dates by month over the window, oldest first, zero-filled
func (w window) series(dates []time.Time) []MonthlyPoint {
	points := make([]MonthlyPoint, SeriesMonths)
	index := make(map[string]int, SeriesMonths)
	for i := range points {
		key := w.seriesStart.AddDate(0, i, 0).Format(MonthLayout)
		points[i].Month = key
		index[key] = i
	}
	for _, d := range dates {
		if i, ok := index[d.Format(MonthLayout)]; ok {
			points[i].Count++
		}
	}
	return points
}

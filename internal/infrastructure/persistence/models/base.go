package models

import "time"

// BaseModel provides the auto-increment key and timestamps shared by the mutable tables
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All returns every model that AutoMigrate should create.
// The account-opening table is included for sqlite development databases only;
// postgres schemas come from the SQL migrations.
func All() []any {
	return []any{
		&TraiteModel{},
		&TierModel{},
		&PendingClientModel{},
		&ClientApprovalModel{},
		&TierActivityModel{},
		&SequenceModel{},
		&AccountOpeningRequestModel{},
	}
}

// dateOnly drops the clock part so date columns compare equal across drivers
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package models

import "time"

// Session is an academic year against which fee schedules and obligations
// are scoped, e.g. April 2026 through March 2027.
type Session struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:30;uniqueIndex;not null" json:"name"`
	StartMonth int       `gorm:"not null" json:"start_month"`
	StartYear  int       `gorm:"not null" json:"start_year"`
	EndMonth   int       `gorm:"not null" json:"end_month"`
	EndYear    int       `gorm:"not null" json:"end_year"`
	Active     bool      `gorm:"default:false;index" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// TotalMonths returns the number of calendar months the session spans,
// inclusive of both ends.
func (s *Session) TotalMonths() int {
	return (s.EndYear-s.StartYear)*12 + (s.EndMonth - s.StartMonth) + 1
}

// MonthIndex returns the zero-based position of (month, year) within the
// session, or -1 when the month falls outside the session window.
func (s *Session) MonthIndex(month, year int) int {
	idx := (year-s.StartYear)*12 + (month - s.StartMonth)
	if idx < 0 || idx >= s.TotalMonths() {
		return -1
	}
	return idx
}

// Contains reports whether (month, year) falls inside the session window.
func (s *Session) Contains(month, year int) bool {
	return s.MonthIndex(month, year) >= 0
}

package models

import "time"

// Class is a school class/grade, the unit fee structures are keyed by.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Class
func (Class) TableName() string {
	return "classes"
}

// Student is the identity the ledger tracks obligations against. Students
// are never hard-deleted; a leaver keeps a frozen ledger.
type Student struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AdmissionNo   string     `gorm:"size:30;uniqueIndex;not null" json:"admission_no"`
	FirstName     string     `gorm:"size:60;not null" json:"first_name"`
	LastName      string     `gorm:"size:60;not null" json:"last_name"`
	ClassID       uint       `gorm:"not null;index" json:"class_id"`
	GuardianName  string     `gorm:"size:120" json:"guardian_name"`
	GuardianPhone string     `gorm:"size:30" json:"guardian_phone"`
	LeftAt        *time.Time `gorm:"index" json:"left_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Class *Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// IsActive returns true if the student has not left the school.
func (s *Student) IsActive() bool {
	return s.LeftAt == nil
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentResponse is the API shape for students
type StudentResponse struct {
	ID            uint       `json:"id"`
	AdmissionNo   string     `json:"admission_no"`
	FullName      string     `json:"full_name"`
	ClassID       uint       `json:"class_id"`
	ClassName     string     `json:"class_name,omitempty"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone"`
	Active        bool       `json:"active"`
	LeftAt        *time.Time `json:"left_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToResponse converts a Student to StudentResponse
func (s *Student) ToResponse() StudentResponse {
	resp := StudentResponse{
		ID:            s.ID,
		AdmissionNo:   s.AdmissionNo,
		FullName:      s.FullName(),
		ClassID:       s.ClassID,
		GuardianName:  s.GuardianName,
		GuardianPhone: s.GuardianPhone,
		Active:        s.IsActive(),
		LeftAt:        s.LeftAt,
		CreatedAt:     s.CreatedAt,
	}
	if s.Class != nil {
		resp.ClassName = s.Class.Name
	}
	return resp
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subject is the top of the curriculum hierarchy: subject -> unit -> topic.
type Subject struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

	Name string `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Subject) TableName() string { return "subjects" }

type Unit struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject   *Subject  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubjectID;references:ID" json:"-"`

	UnitNumber int    `gorm:"column:unit_number;not null;index" json:"unit_number"`
	Title      string `gorm:"column:title;not null" json:"title"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Unit) TableName() string { return "units" }

type Topic struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UnitID uuid.UUID `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit   *Unit     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UnitID;references:ID" json:"-"`

	Title string `gorm:"column:title;not null" json:"title"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topics" }

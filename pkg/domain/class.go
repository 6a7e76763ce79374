package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ClassType distinguishes private lessons from group lessons.
type ClassType string

const (
	ClassIndividual ClassType = "individual"
	ClassGroup      ClassType = "group"
)

// Repeating is the recurrence rule of a class.
type Repeating string

const (
	RepeatNone    Repeating = "none"
	RepeatWeekly  Repeating = "weekly"
	RepeatMonthly Repeating = "monthly"
)

// ClassStatus is the lifecycle state of a class.
type ClassStatus string

const (
	ClassScheduled ClassStatus = "scheduled"
	ClassCompleted ClassStatus = "completed"
	ClassCancelled ClassStatus = "cancelled"
)

// Class is a scheduled session with an assigned roster.
type Class struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date" validate:"required"`
	Type            ClassType       `json:"type" validate:"required,classtype"`
	MaxStudents     int             `json:"maxStudents" validate:"min=1,max=50"`
	PricePerStudent decimal.Decimal `json:"pricePerStudent"`
	Observations    string          `json:"observations"`
	Repeating       Repeating       `json:"repeating" validate:"omitempty,repeating"`
	Students        []string        `json:"students" validate:"unique"`
	Attendances     map[string]bool `json:"attendances"`
	Status          ClassStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	ParentID        string          `json:"parentId,omitempty"`
}

// DisplayName is the name shown on charges and receipts.
func (c Class) DisplayName() string {
	if c.Observations != "" {
		return c.Observations
	}
	if c.Type == ClassIndividual {
		return "Clase Individual"
	}
	return "Clase Grupal"
}

// ChargeDescription describes the charge generated for attending c.
func (c Class) ChargeDescription() string {
	if c.Type == ClassIndividual {
		return "Clase individual"
	}
	return "Clase grupal"
}

// HasStudent reports whether id is on the roster.
func (c Class) HasStudent(id string) bool {
	return slices.Contains(c.Students, id)
}

// Recorded reports whether attendance was already recorded for id.
func (c Class) Recorded(id string) bool {
	_, ok := c.Attendances[id]
	return ok
}

// Clone returns a copy that shares no slices or maps with c.
func (c Class) Clone() Class {
	c.Students = slices.Clone(c.Students)
	c.Attendances = maps.Clone(c.Attendances)
	return c
}

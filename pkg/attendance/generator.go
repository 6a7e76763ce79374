// Package attendance turns recorded attendance into charges and ledger
// entries.
package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

var (
	// ErrAlreadyRecorded is returned when a student's attendance for a class
	// was already recorded.
	ErrAlreadyRecorded = errors.New("attendance already recorded")

	// ErrNotEnrolled is returned when a mark targets a student who is not on
	// the class roster.
	ErrNotEnrolled = errors.New("student is not enrolled in the class")

	// ErrInvalidStatus is returned for an attendance status other than
	// Presente or Ausente.
	ErrInvalidStatus = errors.New("invalid attendance status")
)

// Input is one attendance outcome.
type Input struct {
	StudentID   string
	StudentName string
	ClassID     string
	ClassName   string
	Description string
	Status      domain.AttendanceStatus
	Price       decimal.Decimal
	Date        time.Time
}

// Outcome is what one attendance produces. Charge is nil for absences.
type Outcome struct {
	Charge *domain.Transaction
	Entry  domain.AccountEntry
}

// Generator creates charges and ledger entries from attendance.
type Generator struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDs sets the identifier source.
func WithIDs(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now, newID: domain.NewID}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate converts one attendance outcome. Attending creates a pending
// charge for the price; an absence only produces a zero ledger entry.
func (g *Generator) Generate(in Input) (Outcome, error) {
	var amount decimal.Decimal
	switch in.Status {
	case domain.AttendancePresent:
		amount = domain.Round(in.Price)
	case domain.AttendanceAbsent:
		amount = decimal.Zero
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	out := Outcome{
		Entry: domain.AccountEntry{
			ID:               g.newID(),
			Kind:             domain.EntryClassAttendance,
			Date:             in.Date,
			ClassID:          in.ClassID,
			ClassName:        in.ClassName,
			AttendanceStatus: in.Status,
			Amount:           amount,
			CreatedAt:        g.now(),
		},
	}

	if amount.IsPositive() {
		out.Charge = &domain.Transaction{
			ID:          g.newID(),
			StudentID:   in.StudentID,
			StudentName: in.StudentName,
			ClassID:     in.ClassID,
			ClassName:   in.ClassName,
			Type:        domain.TypeCharge,
			Amount:      amount,
			Date:        in.Date,
			Description: in.Description,
			Status:      domain.StatusPending,
		}
	}

	return out, nil
}

// Mark is the attendance of one student.
type Mark struct {
	StudentID string                  `json:"studentId"`
	Status    domain.AttendanceStatus `json:"status"`
}

// Result is a class after recording attendance, the students whose ledger
// changed, and the charges to append.
type Result struct {
	Class    domain.Class
	Students []domain.Student
	Charges  []domain.Transaction
}

// Record applies marks to a class. Students are resolved through lookup;
// an unknown student still gets a charge, with an empty name.
func (g *Generator) Record(class domain.Class, lookup func(id string) (domain.Student, bool), marks []Mark) (Result, error) {
	class = class.Clone()
	if class.Attendances == nil {
		class.Attendances = make(map[string]bool)
	}

	res := Result{}
	seen := make(map[string]bool, len(marks))
	for _, m := range marks {
		if !class.HasStudent(m.StudentID) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotEnrolled, m.StudentID)
		}
		if class.Recorded(m.StudentID) || seen[m.StudentID] {
			return Result{}, fmt.Errorf("%w: %s", ErrAlreadyRecorded, m.StudentID)
		}
		seen[m.StudentID] = true

		student, found := lookup(m.StudentID)
		out, err := g.Generate(Input{
			StudentID:   m.StudentID,
			StudentName: student.Name,
			ClassID:     class.ID,
			ClassName:   class.DisplayName(),
			Description: class.ChargeDescription(),
			Status:      m.Status,
			Price:       class.PricePerStudent,
			Date:        class.Date,
		})
		if err != nil {
			return Result{}, err
		}

		if out.Charge != nil {
			res.Charges = append(res.Charges, *out.Charge)
		}
		if found {
			student.AppendEntry(out.Entry)
			res.Students = append(res.Students, student)
		}
		class.Attendances[m.StudentID] = m.Status == domain.AttendancePresent
	}

	if len(marks) > 0 {
		class.Status = domain.ClassCompleted
	}
	res.Class = class
	return res, nil
}

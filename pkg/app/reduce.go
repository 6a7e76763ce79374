package app

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/attendance"
	"github.com/pigeonworks-llc/club-billing/pkg/billing"
	"github.com/pigeonworks-llc/club-billing/pkg/domain"
	"github.com/pigeonworks-llc/club-billing/pkg/recurrence"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
	"github.com/pigeonworks-llc/club-billing/pkg/validate"
)

// Effect describes what a command did: the collections to persist and the
// records worth showing to the caller.
type Effect struct {
	Touched   []string `json:"-"`
	StudentID string   `json:"studentId,omitempty"`
	// Amount is the money collected, when the command collected any.
	Amount  decimal.NullDecimal `json:"amount"`
	Summary string              `json:"summary"`

	Student     *domain.Student         `json:"student,omitempty"`
	Classes     []domain.Class          `json:"classes,omitempty"`
	Charges     []domain.Transaction    `json:"charges,omitempty"`
	Remainders  []domain.Transaction    `json:"remainders,omitempty"`
	Receipt     *domain.Receipt         `json:"receipt,omitempty"`
	Payment     *domain.Payment         `json:"payment,omitempty"`
	Invoice     *domain.Invoice         `json:"invoice,omitempty"`
	Replication *recurrence.Replication `json:"replication,omitempty"`
}

// Reducer applies commands to a state. It never modifies the state it is
// given; slices that change are copied first.
type Reducer struct {
	now       func() time.Time
	newID     func() string
	engine    *billing.Engine
	generator *attendance.Generator
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithClock sets the time source of the reducer and its engines.
func WithClock(now func() time.Time) ReducerOption {
	return func(r *Reducer) { r.now = now }
}

// WithIDs sets the identifier source of the reducer and its engines.
func WithIDs(newID func() string) ReducerOption {
	return func(r *Reducer) { r.newID = newID }
}

// NewReducer creates a Reducer.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{now: time.Now, newID: domain.NewID}
	for _, opt := range opts {
		opt(r)
	}
	r.engine = billing.NewEngine(billing.WithClock(r.now), billing.WithIDs(r.newID))
	r.generator = attendance.NewGenerator(attendance.WithClock(r.now), attendance.WithIDs(r.newID))
	return r
}

var defaultReducer = NewReducer()

// Reduce applies cmd to s with the wall clock and random ids.
func Reduce(s State, cmd Command) (State, Effect, error) {
	return defaultReducer.Reduce(s, cmd)
}

// Reduce applies cmd to s. On error the returned state is s unchanged.
func (r *Reducer) Reduce(s State, cmd Command) (State, Effect, error) {
	var (
		next State
		eff  Effect
		err  error
	)

	switch c := cmd.(type) {
	case AddStudent:
		next, eff, err = r.addStudent(s, c)
	case UpdateStudent:
		next, eff, err = r.updateStudent(s, c)
	case DeleteStudent:
		next, eff, err = r.deleteStudent(s, c)
	case AddClass:
		next, eff, err = r.addClass(s, c)
	case UpdateClass:
		next, eff, err = r.updateClass(s, c)
	case DeleteClass:
		next, eff, err = r.deleteClass(s, c)
	case EnrollStudent:
		next, eff, err = r.enrollStudent(s, c)
	case RecordAttendance:
		next, eff, err = r.recordAttendance(s, c)
	case ApplyDiscount:
		next, eff, err = r.applyDiscount(s, c)
	case SettleCharges:
		next, eff, err = r.settleCharges(s, c)
	case SettleLines:
		next, eff, err = r.settleLines(s, c)
	case DeleteReceipt:
		next, eff, err = r.deleteReceipt(s, c)
	case IssueInvoice:
		next, eff, err = r.issueInvoice(s, c)
	case ReplicateMonth:
		next, eff, err = r.replicateMonth(s, c)
	case SetUser:
		next, eff, err = r.setUser(s, c)
	case Restore:
		next, eff, err = r.restore(s, c)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	if err != nil {
		return s, Effect{}, err
	}
	return next, eff, nil
}

func (r *Reducer) addStudent(s State, c AddStudent) (State, Effect, error) {
	st := c.Student
	st.Name = strings.TrimSpace(st.Name)
	if err := validate.Struct(st); err != nil {
		return s, Effect{}, err
	}
	if st.ID == "" {
		st.ID = r.newID()
	}
	if _, ok := s.Student(st.ID); ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrDuplicateID, st.ID)
	}

	st.CurrentBalance = decimal.Zero
	st.AccountHistory = []domain.AccountEntry{}
	st.CreatedAt = r.now()

	s.Students = append(slices.Clip(s.Students), st)
	return s, Effect{
		Touched:   []string{store.KeyStudents},
		StudentID: st.ID,
		Summary:   st.Name,
		Student:   &st,
	}, nil
}

func (r *Reducer) updateStudent(s State, c UpdateStudent) (State, Effect, error) {
	existing, ok := s.Student(c.Student.ID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.Student.ID)
	}

	in := c.Student
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return s, Effect{}, err
	}

	st := existing
	st.Name = in.Name
	st.DNI = in.DNI
	st.Phone = in.Phone
	st.Lot = in.Lot
	st.Neighborhood = in.Neighborhood
	st.Condition = in.Condition
	st.Observations = in.Observations

	s.Students = replaceByID(s.Students, studentID, st)
	return s, Effect{
		Touched:   []string{store.KeyStudents},
		StudentID: st.ID,
		Summary:   st.Name,
		Student:   &st,
	}, nil
}

func (r *Reducer) deleteStudent(s State, c DeleteStudent) (State, Effect, error) {
	st, ok := s.Student(c.ID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.ID)
	}

	referenced := slices.ContainsFunc(s.Transactions, func(t domain.Transaction) bool { return t.StudentID == c.ID }) ||
		slices.ContainsFunc(s.Receipts, func(r domain.Receipt) bool { return r.StudentID == c.ID }) ||
		slices.ContainsFunc(s.Payments, func(p domain.Payment) bool { return p.StudentID == c.ID })
	if referenced {
		return s, Effect{}, fmt.Errorf("%w: %s", ErrStudentReferenced, st.Name)
	}

	s.Students = slices.DeleteFunc(slices.Clone(s.Students), func(x domain.Student) bool { return x.ID == c.ID })
	eff := Effect{Touched: []string{store.KeyStudents}, StudentID: c.ID, Summary: st.Name}

	var rosterChanged bool
	classes := slices.Clone(s.Classes)
	for i, cl := range classes {
		if !cl.HasStudent(c.ID) || cl.Recorded(c.ID) {
			continue
		}
		cl = cl.Clone()
		cl.Students = slices.DeleteFunc(cl.Students, func(id string) bool { return id == c.ID })
		classes[i] = cl
		rosterChanged = true
	}
	if rosterChanged {
		s.Classes = classes
		eff.Touched = append(eff.Touched, store.KeyClasses)
	}

	return s, eff, nil
}

// checkRoster validates a class and its roster against capacity and the
// known students.
func checkRoster(s State, cl domain.Class) error {
	if err := validate.Struct(cl); err != nil {
		return err
	}
	if cl.PricePerStudent.IsNegative() {
		return validate.Field("pricePerStudent", "pricePerStudent debe ser mayor o igual a 0")
	}
	if len(cl.Students) > cl.MaxStudents {
		return fmt.Errorf("%w: %d students, capacity %d", ErrClassFull, len(cl.Students), cl.MaxStudents)
	}
	for _, id := range cl.Students {
		if _, ok := s.Student(id); !ok {
			return fmt.Errorf("%w: student %s", ErrNotFound, id)
		}
	}
	return nil
}

func (r *Reducer) addClass(s State, c AddClass) (State, Effect, error) {
	cl := c.Class.Clone()
	if cl.Repeating == "" {
		cl.Repeating = domain.RepeatNone
	}
	if cl.Type == domain.ClassIndividual {
		cl.MaxStudents = 1
	}
	if cl.Students == nil {
		cl.Students = []string{}
	}
	if err := checkRoster(s, cl); err != nil {
		return s, Effect{}, err
	}

	if cl.ID == "" {
		cl.ID = r.newID()
	}
	if _, ok := s.Class(cl.ID); ok {
		return s, Effect{}, fmt.Errorf("%w: class %s", ErrDuplicateID, cl.ID)
	}

	now := r.now()
	cl.PricePerStudent = domain.Round(cl.PricePerStudent)
	cl.Attendances = map[string]bool{}
	cl.Status = domain.ClassScheduled
	cl.CreatedAt = now

	created := append([]domain.Class{cl}, recurrence.Expand(cl, now)...)
	s.Classes = append(slices.Clip(s.Classes), created...)

	return s, Effect{
		Touched: []string{store.KeyClasses},
		Summary: fmt.Sprintf("%s %s (%d)", cl.DisplayName(), cl.Date.Format("2006-01-02 15:04"), len(created)),
		Classes: created,
	}, nil
}

func (r *Reducer) updateClass(s State, c UpdateClass) (State, Effect, error) {
	existing, ok := s.Class(c.Class.ID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: class %s", ErrNotFound, c.Class.ID)
	}

	cl := c.Class.Clone()
	if cl.Repeating == "" {
		cl.Repeating = existing.Repeating
	}
	if cl.Type == domain.ClassIndividual {
		cl.MaxStudents = 1
	}
	if cl.Students == nil {
		cl.Students = []string{}
	}
	if err := checkRoster(s, cl); err != nil {
		return s, Effect{}, err
	}
	for id := range existing.Attendances {
		if !cl.HasStudent(id) {
			return s, Effect{}, fmt.Errorf("%w: %s", ErrAttendanceRecorded, id)
		}
	}

	cl.PricePerStudent = domain.Round(cl.PricePerStudent)
	cl.Attendances = existing.Clone().Attendances
	cl.CreatedAt = existing.CreatedAt
	cl.ParentID = existing.ParentID
	switch {
	case c.Class.Status == domain.ClassCancelled && len(existing.Attendances) == 0:
		cl.Status = domain.ClassCancelled
	case c.Class.Status == domain.ClassScheduled && existing.Status == domain.ClassCancelled:
		cl.Status = domain.ClassScheduled
	default:
		cl.Status = existing.Status
	}

	s.Classes = replaceByID(s.Classes, classID, cl)
	return s, Effect{
		Touched: []string{store.KeyClasses},
		Summary: fmt.Sprintf("%s %s", cl.DisplayName(), cl.Date.Format("2006-01-02 15:04")),
		Classes: []domain.Class{cl},
	}, nil
}

func (r *Reducer) deleteClass(s State, c DeleteClass) (State, Effect, error) {
	cl, ok := s.Class(c.ID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: class %s", ErrNotFound, c.ID)
	}
	charged := slices.ContainsFunc(s.Transactions, func(t domain.Transaction) bool { return t.ClassID == c.ID })
	if len(cl.Attendances) > 0 || charged {
		return s, Effect{}, fmt.Errorf("%w: %s", ErrClassReferenced, c.ID)
	}

	s.Classes = slices.DeleteFunc(slices.Clone(s.Classes), func(x domain.Class) bool { return x.ID == c.ID })
	return s, Effect{
		Touched: []string{store.KeyClasses},
		Summary: fmt.Sprintf("%s %s", cl.DisplayName(), cl.Date.Format("2006-01-02 15:04")),
	}, nil
}

func (r *Reducer) enrollStudent(s State, c EnrollStudent) (State, Effect, error) {
	cl, ok := s.Class(c.ClassID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: class %s", ErrNotFound, c.ClassID)
	}
	st, ok := s.Student(c.StudentID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.StudentID)
	}
	switch {
	case cl.Status == domain.ClassCancelled:
		return s, Effect{}, fmt.Errorf("%w: %s", ErrClassCancelled, cl.ID)
	case cl.HasStudent(st.ID):
		return s, Effect{}, fmt.Errorf("%w: %s", ErrAlreadyEnrolled, st.Name)
	case len(cl.Students) >= cl.MaxStudents:
		return s, Effect{}, fmt.Errorf("%w: capacity %d", ErrClassFull, cl.MaxStudents)
	}

	cl = cl.Clone()
	cl.Students = append(cl.Students, st.ID)
	s.Classes = replaceByID(s.Classes, classID, cl)

	return s, Effect{
		Touched:   []string{store.KeyClasses},
		StudentID: st.ID,
		Summary:   fmt.Sprintf("%s -> %s", st.Name, cl.DisplayName()),
		Classes:   []domain.Class{cl},
	}, nil
}

func (r *Reducer) recordAttendance(s State, c RecordAttendance) (State, Effect, error) {
	cl, ok := s.Class(c.ClassID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: class %s", ErrNotFound, c.ClassID)
	}
	if cl.Status == domain.ClassCancelled {
		return s, Effect{}, fmt.Errorf("%w: %s", ErrClassCancelled, cl.ID)
	}

	res, err := r.generator.Record(cl, s.Student, c.Marks)
	if err != nil {
		return s, Effect{}, err
	}

	s.Classes = replaceByID(s.Classes, classID, res.Class)
	s.Students = replaceByID(s.Students, studentID, res.Students...)
	eff := Effect{
		Touched: []string{store.KeyClasses, store.KeyStudents},
		Summary: fmt.Sprintf("%s: %d marks, %d charges", res.Class.DisplayName(), len(c.Marks), len(res.Charges)),
		Classes: []domain.Class{res.Class},
		Charges: res.Charges,
	}
	if len(res.Charges) > 0 {
		s.Transactions = append(slices.Clip(s.Transactions), res.Charges...)
		eff.Touched = append(eff.Touched, store.KeyTransactions)
	}
	return s, eff, nil
}

func (r *Reducer) applyDiscount(s State, c ApplyDiscount) (State, Effect, error) {
	st, ok := s.Student(c.StudentID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.StudentID)
	}
	set, err := r.engine.ApplyDiscount(st, s.Transactions, c.Discount, c.Method)
	if err != nil {
		return s, Effect{}, err
	}
	next, eff := applySettlement(s, set)
	return next, eff, nil
}

func (r *Reducer) settleCharges(s State, c SettleCharges) (State, Effect, error) {
	st, ok := s.Student(c.StudentID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.StudentID)
	}
	charges, err := selectTransactions(s, c.TransactionIDs)
	if err != nil {
		return s, Effect{}, err
	}

	set, err := r.engine.Settle(billing.Request{
		Student:    st,
		Charges:    charges,
		Discount:   c.Discount,
		PaymentNow: c.PaymentNow,
		Method:     c.Method,
		Note:       c.Note,
	})
	if err != nil {
		return s, Effect{}, err
	}
	next, eff := applySettlement(s, set)
	return next, eff, nil
}

func (r *Reducer) settleLines(s State, c SettleLines) (State, Effect, error) {
	st, ok := s.Student(c.StudentID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: student %s", ErrNotFound, c.StudentID)
	}

	lines := make([]billing.Line, 0, len(c.Lines))
	for _, in := range c.Lines {
		t, ok := s.Transaction(in.TransactionID)
		if !ok {
			return s, Effect{}, fmt.Errorf("%w: transaction %s", ErrNotFound, in.TransactionID)
		}
		lines = append(lines, billing.Line{Charge: t, CustomAmount: in.CustomAmount, Discount: in.Discount})
	}

	set, err := r.engine.SettleLines(st, lines, c.Method)
	if err != nil {
		return s, Effect{}, err
	}
	next, eff := applySettlement(s, set)
	return next, eff, nil
}

func selectTransactions(s State, ids []string) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		t, ok := s.Transaction(id)
		if !ok {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
		}
		out = append(out, t)
	}
	return out, nil
}

func applySettlement(s State, set billing.Settlement) (State, Effect) {
	s.Transactions = replaceByID(s.Transactions, transactionID, set.Closed...)
	s.Transactions = append(s.Transactions, set.Remainders...)
	s.Receipts = append(slices.Clip(s.Receipts), set.Receipt)

	receipt := set.Receipt
	eff := Effect{
		Touched:    []string{store.KeyTransactions, store.KeyReceipts},
		StudentID:  set.Student.ID,
		Summary:    fmt.Sprintf("receipt %s for %s", receipt.ID, set.Student.Name),
		Remainders: set.Remainders,
		Receipt:    &receipt,
		Payment:    set.Payment,
	}

	if set.Entry != nil {
		s.Students = replaceByID(s.Students, studentID, set.Student)
		eff.Touched = append(eff.Touched, store.KeyStudents)
		st := set.Student
		eff.Student = &st
	}
	if set.Payment != nil {
		s.Payments = append(slices.Clip(s.Payments), *set.Payment)
		eff.Touched = append(eff.Touched, store.KeyPayments)
		eff.Amount = decimal.NewNullDecimal(set.Payment.Amount)
	}
	return s, eff
}

func (r *Reducer) deleteReceipt(s State, c DeleteReceipt) (State, Effect, error) {
	rc, ok := s.Receipt(c.ID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: receipt %s", ErrNotFound, c.ID)
	}
	s.Receipts = slices.DeleteFunc(slices.Clone(s.Receipts), func(x domain.Receipt) bool { return x.ID == c.ID })
	return s, Effect{
		Touched:   []string{store.KeyReceipts},
		StudentID: rc.StudentID,
		Summary:   fmt.Sprintf("receipt %s", rc.ID),
	}, nil
}

func (r *Reducer) issueInvoice(s State, c IssueInvoice) (State, Effect, error) {
	rc, ok := s.Receipt(c.ReceiptID)
	if !ok {
		return s, Effect{}, fmt.Errorf("%w: receipt %s", ErrNotFound, c.ReceiptID)
	}
	if slices.ContainsFunc(s.Invoices, func(inv domain.Invoice) bool { return inv.ReceiptID == rc.ID }) {
		return s, Effect{}, fmt.Errorf("%w: %s", ErrAlreadyInvoiced, rc.ID)
	}

	inv := domain.Invoice{
		ID:        r.newID(),
		StudentID: rc.StudentID,
		ReceiptID: rc.ID,
		Number:    fmt.Sprintf("F-%06d", len(s.Invoices)+1),
		Date:      r.now(),
		Subtotal:  rc.TotalAmount,
		Total:     rc.PaidAmount(),
		Status:    domain.InvoicePending,
	}
	for _, line := range rc.Transactions {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			ID:            r.newID(),
			TransactionID: line.TransactionID,
			Description:   fmt.Sprintf("%s %s", line.ClassName, line.Date.Format("02/01/2006")),
			Quantity:      1,
			UnitPrice:     line.Amount,
			Total:         line.Amount,
		})
	}
	if inv.Total.IsPositive() {
		paidAt := rc.Date
		inv.Status = domain.InvoicePaid
		inv.PaidAt = &paidAt
		inv.PaymentMethod = rc.PaymentMethod
	}

	var invoiced []domain.Transaction
	for _, t := range s.Transactions {
		if t.ReceiptID == rc.ID {
			t.InvoiceID = inv.ID
			invoiced = append(invoiced, t)
		}
	}
	var paid []domain.Payment
	for _, p := range s.Payments {
		if p.ReceiptID == rc.ID {
			p.InvoiceID = inv.ID
			paid = append(paid, p)
		}
	}

	s.Invoices = append(slices.Clip(s.Invoices), inv)
	eff := Effect{
		Touched:   []string{store.KeyInvoices},
		StudentID: rc.StudentID,
		Summary:   fmt.Sprintf("invoice %s for receipt %s", inv.Number, rc.ID),
		Invoice:   &inv,
	}
	if len(invoiced) > 0 {
		s.Transactions = replaceByID(s.Transactions, transactionID, invoiced...)
		eff.Touched = append(eff.Touched, store.KeyTransactions)
	}
	if len(paid) > 0 {
		s.Payments = replaceByID(s.Payments, paymentID, paid...)
		eff.Touched = append(eff.Touched, store.KeyPayments)
	}
	return s, eff, nil
}

func (r *Reducer) replicateMonth(s State, c ReplicateMonth) (State, Effect, error) {
	rep, err := recurrence.ReplicateMonth(s.Classes, c.Year, c.Month, c.Location, r.now())
	if err != nil {
		return s, Effect{}, err
	}

	eff := Effect{
		Summary:     fmt.Sprintf("%d-%02d: %d classes from %d patterns, %d duplicates skipped", c.Year, c.Month, len(rep.Classes), rep.Patterns, rep.Duplicates),
		Classes:     rep.Classes,
		Replication: &rep,
	}
	if len(rep.Classes) > 0 {
		s.Classes = append(slices.Clip(s.Classes), rep.Classes...)
		eff.Touched = []string{store.KeyClasses}
	}
	return s, eff, nil
}

func (r *Reducer) setUser(s State, c SetUser) (State, Effect, error) {
	u := c.User
	if err := validate.Struct(u); err != nil {
		return s, Effect{}, err
	}
	if u.ID == "" {
		u.ID = r.newID()
	}
	s.CurrentUser = u
	return s, Effect{Touched: []string{store.KeyCurrentUser}, Summary: u.Name}, nil
}

func (r *Reducer) restore(s State, c Restore) (State, Effect, error) {
	s.Students = c.Students
	s.Classes = c.Classes
	s.Transactions = c.Transactions
	s.Receipts = c.Receipts
	s = s.Normalize()

	return s, Effect{
		Touched: []string{store.KeyStudents, store.KeyClasses, store.KeyTransactions, store.KeyReceipts},
		Summary: fmt.Sprintf("%d students, %d classes, %d transactions, %d receipts",
			len(s.Students), len(s.Classes), len(s.Transactions), len(s.Receipts)),
	}, nil
}

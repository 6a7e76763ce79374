package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is either a charge or a payment.
type TransactionType string

const (
	TypeCharge  TransactionType = "charge"
	TypePayment TransactionType = "payment"
)

// TransactionStatus is Pendiente until a reconciliation closes it.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "Pendiente"
	StatusPaid    TransactionStatus = "Pagado"
)

// SettlementKind records how a transaction was closed.
type SettlementKind string

const (
	SettledFull     SettlementKind = "total"
	SettledPartial  SettlementKind = "parcial"
	SettledDiscount SettlementKind = "descuento"
)

// Transaction is a charge or payment row. Rows are only ever appended or
// closed; the amount of an existing row never changes.
type Transaction struct {
	ID             string            `json:"id"`
	StudentID      string            `json:"studentId"`
	StudentName    string            `json:"studentName"`
	ClassID        string            `json:"classId,omitempty"`
	ClassName      string            `json:"className"`
	Type           TransactionType   `json:"type"`
	Amount         decimal.Decimal   `json:"amount"`
	Date           time.Time         `json:"date"`
	Description    string            `json:"description"`
	Status         TransactionStatus `json:"status"`
	ReceiptID      string            `json:"receiptId,omitempty"`
	SettlementKind SettlementKind    `json:"settlementKind,omitempty"`
	InvoiceID      string            `json:"invoiceId,omitempty"`
}

// IsPendingCharge reports whether t is open with a positive amount.
func (t Transaction) IsPendingCharge() bool {
	return t.Status == StatusPending && t.Amount.IsPositive()
}

// PaymentMethod is how money was collected.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
	MethodCard     PaymentMethod = "card"
	MethodCombined PaymentMethod = "combined"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodCard, MethodCombined:
		return true
	}
	return false
}

// Payment records money collected by one reconciliation.
type Payment struct {
	ID             string          `json:"id"`
	StudentID      string          `json:"studentId"`
	ReceiptID      string          `json:"receiptId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Method         PaymentMethod   `json:"method"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	InvoiceID      string          `json:"invoiceId,omitempty"`
	TransactionIDs []string        `json:"transactionIds"`
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceItem is one billed line.
type InvoiceItem struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"total"`
}

// Invoice is a numbered billing document issued from a receipt.
type Invoice struct {
	ID            string          `json:"id"`
	StudentID     string          `json:"studentId"`
	ReceiptID     string          `json:"receiptId,omitempty"`
	Number        string          `json:"number"`
	Date          time.Time       `json:"date"`
	Items         []InvoiceItem   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
	Status        InvoiceStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// Role of the operator using the tool.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProfessor Role = "professor"
)

// User is the current operator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
	Role Role   `json:"role" validate:"required,oneof=admin professor"`
}

// DefaultUser is used until an operator is configured.
func DefaultUser() User {
	return User{ID: "default", Name: "Profesor", Role: RoleProfessor}
}

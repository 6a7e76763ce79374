package client

import (
	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/club-billing/pkg/domain"
)

// TransactionsResponse represents the response for GET /students/{id}/transactions.
type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	PendingTotal decimal.Decimal      `json:"pendingTotal"`
}

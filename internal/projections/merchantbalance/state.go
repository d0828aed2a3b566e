// Package merchantbalance folds balance-moving events into a running
// balance per (estate, merchant) partition, plus an immutable history
// entry per movement. It runs on the ordered pipeline: per-merchant
// commit order is what makes the running balance meaningful.
package merchantbalance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
)

// applyDeposit credits the balance.
func applyDeposit(state *models.MerchantBalanceSnapshot, amount decimal.Decimal, at time.Time) {
	state.Balance = state.Balance.Add(amount)
	state.AvailableBalance = state.AvailableBalance.Add(amount)
	state.DepositCount++
	state.LastDepositAt = &at
}

// applyWithdrawal debits the balance.
func applyWithdrawal(state *models.MerchantBalanceSnapshot, amount decimal.Decimal, at time.Time) {
	state.Balance = state.Balance.Sub(amount)
	state.AvailableBalance = state.AvailableBalance.Sub(amount)
	state.WithdrawalCount++
	state.LastWithdrawalAt = &at
}

// applyAuthorisedSale debits the balance for a completed, authorised
// sale.
func applyAuthorisedSale(state *models.MerchantBalanceSnapshot, amount decimal.Decimal, at time.Time) {
	state.Balance = state.Balance.Sub(amount)
	state.AvailableBalance = state.AvailableBalance.Sub(amount)
	state.SaleCount++
	state.LastSaleAt = &at
}

// applyDeclinedSale counts the attempt; declined sales never move the
// balance.
func applyDeclinedSale(state *models.MerchantBalanceSnapshot, at time.Time) {
	state.DeclinedSaleCount++
	state.LastSaleAt = &at
}

// applySettledFee debits the balance for a settled merchant fee.
func applySettledFee(state *models.MerchantBalanceSnapshot, amount decimal.Decimal, at time.Time) {
	state.Balance = state.Balance.Sub(amount)
	state.AvailableBalance = state.AvailableBalance.Sub(amount)
	state.FeeCount++
	state.LastFeeAt = &at
}

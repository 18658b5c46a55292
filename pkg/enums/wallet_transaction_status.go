package enums

import "fmt"

// WalletTransactionStatus is the settlement state of a wallet ledger entry.
// Withdrawal requests sit in pending until an operator flips them to approved
// or rejected; only success entries move the balance, so an approval writes a
// separate success debit linked to the request. Purchase debits and refund
// credits are written as success directly.
type WalletTransactionStatus string

const (
	WalletTransactionStatusSuccess  WalletTransactionStatus = "success"
	WalletTransactionStatusPending  WalletTransactionStatus = "pending"
	WalletTransactionStatusApproved WalletTransactionStatus = "approved"
	WalletTransactionStatusFailed   WalletTransactionStatus = "failed"
	WalletTransactionStatusRejected WalletTransactionStatus = "rejected"
)

var validWalletTransactionStatuses = []WalletTransactionStatus{
	WalletTransactionStatusSuccess,
	WalletTransactionStatusPending,
	WalletTransactionStatusApproved,
	WalletTransactionStatusFailed,
	WalletTransactionStatusRejected,
}

// String implements fmt.Stringer.
func (w WalletTransactionStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionStatus.
func (w WalletTransactionStatus) IsValid() bool {
	for _, candidate := range validWalletTransactionStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletTransactionStatus converts raw input into a WalletTransactionStatus.
func ParseWalletTransactionStatus(value string) (WalletTransactionStatus, error) {
	for _, candidate := range validWalletTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction status %q", value)
}

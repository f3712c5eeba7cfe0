package tracker

import "github.com/ignite/commerce-tracker/internal/domain"

// PaymentReportPriority runs the sale handler after other status subscribers.
const PaymentReportPriority = 100

// ShouldReport is true only when a payment moves into a completed status from
// a status that was not already completed. Re-saves of a completed payment,
// refunds and other non-completing writes are declined.
func ShouldReport(oldStatus, newStatus domain.PaymentStatus) bool {
	return newStatus.IsCompleted() && !oldStatus.IsCompleted()
}

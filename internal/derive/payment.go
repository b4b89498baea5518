package derive

// PaymentType distinguishes on-cycle payments from settlement of older balances.
type PaymentType string

const (
	PaymentCurrent PaymentType = "current"
	PaymentArrears PaymentType = "arrears"
)

// ClassifyPayment applies the collection heuristic: a positive payment that
// carries no metered volume settles arrears; everything else is current.
func ClassifyPayment(amount, volume float64) PaymentType {
	if amount > 0 && volume == 0 {
		return PaymentArrears
	}
	return PaymentCurrent
}

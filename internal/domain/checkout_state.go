package domain

type CheckoutState string

const (
	CheckoutStateCollecting CheckoutState = "COLLECTING"
	CheckoutStateReviewing  CheckoutState = "REVIEWING"
	CheckoutStateSubmitting CheckoutState = "SUBMITTING"
	CheckoutStateSubmitted  CheckoutState = "SUBMITTED"
	CheckoutStateFailed     CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateCollecting: {CheckoutStateReviewing},
	CheckoutStateReviewing:  {CheckoutStateCollecting, CheckoutStateSubmitting},
	CheckoutStateSubmitting: {CheckoutStateSubmitted, CheckoutStateFailed},
	CheckoutStateFailed:     {CheckoutStateReviewing, CheckoutStateCollecting},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, s := range checkoutTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSubmitted
}

func (s CheckoutState) String() string {
	return string(s)
}

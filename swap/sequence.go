package swap

import "github.com/fcswap/swapcore/swaperr"

// step tracks a role driver's position in the spec.md §4.7 sequence,
// resolving the §5/§9 Open Question ("a stricter implementation may
// add a sequence enum and reject out-of-order calls with
// ProtocolSequence") in favor of the stricter option.
type step uint8

const (
	stepInit step = iota
	stepParametersGenerated
	stepCommitted
	stepRevealed
	stepCoreBuilt
	stepCancelCosigned
	stepRefundProcedureDone // Alice: adaptor-refund signed + sent; Bob: adaptor-refund validated
	stepLockBroadcast       // Bob only: Lock assembled by AssembleLock
	stepBuyDone             // Alice only: buy fully signed (RecoverAccordantKey does not advance the step)
	stepRefundDone          // Bob only: refund fully signed (from stepLockBroadcast; RecoverAccordantKey does not advance the step)
	stepPunishDone          // Alice only, reachable once the refund safety net is in place (stepRefundProcedureDone) whether or not Refund is ever used
)

// advance checks the driver is at expected and moves it to next,
// rejecting out-of-sequence calls with ProtocolSequence per spec.md §5.
func (s *step) advance(expected, next step) error {
	if *s != expected {
		return swaperr.NewProtocol(swaperr.ProtocolSequence, nil)
	}
	*s = next
	return nil
}

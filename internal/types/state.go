package types

import "slices"

// Enum values for Stake State
type StakeState string

const (
	StatePending   StakeState = "PENDING"
	StateStaked    StakeState = "STAKED"
	StateUnstaking StakeState = "UNSTAKING"
	StateReleased  StakeState = "RELEASED"
	StateFailed    StakeState = "FAILED"
)

func (s StakeState) String() string {
	return string(s)
}

// allowedTransitions lists every edge of the stake state machine. FAILED and
// RELEASED have no outgoing edges.
var allowedTransitions = map[StakeState][]StakeState{
	StatePending:   {StateStaked, StateFailed},
	StateStaked:    {StateUnstaking},
	StateUnstaking: {StateReleased, StateFailed},
}

// CanTransitionTo reports whether the state machine has an edge from s to next.
// Staying in the same state (lock acquire/release on a record) is not a transition.
func (s StakeState) CanTransitionTo(next StakeState) bool {
	return slices.Contains(allowedTransitions[s], next)
}

// QualifiedStatesForStakeConfirmed returns the qualified current states for a confirmed custody transfer
func QualifiedStatesForStakeConfirmed() []StakeState {
	return []StakeState{StatePending}
}

// QualifiedStatesForUnstake returns the qualified current states for a withdrawal request
func QualifiedStatesForUnstake() []StakeState {
	return []StakeState{StateStaked}
}

// QualifiedStatesForUnstakeConfirmed returns the qualified current states for a confirmed custody return
func QualifiedStatesForUnstakeConfirmed() []StakeState {
	return []StakeState{StateUnstaking}
}

// QualifiedStatesForFailure returns the states a confirmed remote failure may move to FAILED
func QualifiedStatesForFailure() []StakeState {
	return []StakeState{StatePending, StateUnstaking}
}

// QualifiedStatesForClaim returns the qualified current states for a reward claim
func QualifiedStatesForClaim() []StakeState {
	return []StakeState{StateStaked}
}

// QualifiedStatesForRecovery returns the qualified current states for recovering a custodied asset
func QualifiedStatesForRecovery() []StakeState {
	return []StakeState{StateFailed}
}

// CallKind identifies which workflow owns the in-flight remote call of a record
type CallKind string

const (
	CallKindNone     CallKind = ""
	CallKindStake    CallKind = "stake"
	CallKindUnstake  CallKind = "unstake"
	CallKindClaim    CallKind = "claim"
	CallKindRecover  CallKind = "recover"
	// CallKindTransfer labels native transfers, it never appears on a record
	CallKindTransfer CallKind = "transfer"
)

func (k CallKind) String() string {
	return string(k)
}

package types

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventStakeConfirmed   EventType = "STAKE_CONFIRMED"
	EventStakeFailed      EventType = "STAKE_FAILED"
	EventUnstakeConfirmed EventType = "UNSTAKE_CONFIRMED"
	EventUnstakeFailed    EventType = "UNSTAKE_FAILED"
	EventRewardClaimed    EventType = "REWARD_CLAIMED"
	EventAssetRecovered   EventType = "ASSET_RECOVERED"
)

// StakeEvent is published to the queue after a confirmed ledger transition
type StakeEvent struct {
	EventType     EventType  `json:"event_type"`
	Owner         string     `json:"owner"`
	AssetID       string     `json:"asset_id"`
	State         StakeState `json:"state"`
	CallID        string     `json:"call_id"`
	Amount        string     `json:"amount,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	Timestamp     int64      `json:"timestamp"`
}

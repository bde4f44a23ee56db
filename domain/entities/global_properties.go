package entities

import "time"

// GlobalProperties is the singleton record of chain-wide betting state
type GlobalProperties struct {
	HeadBlockNum     uint64       `json:"head_block_num"`
	HeadBlockTime    time.Time    `json:"head_block_time"`
	LastBetSequence  uint64       `json:"last_bet_sequence"`
	LastMatchedBetID int64        `json:"last_matched_bet_id"`
	Stats            BettingStats `json:"stats"`
}

// NextBetSequence advances and returns the creation-order counter
func (p *GlobalProperties) NextBetSequence() uint64 {
	p.LastBetSequence++
	return p.LastBetSequence
}

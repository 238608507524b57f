package model

// Outcome is the verdict for one pool in one suite.
type Outcome string

const (
	OutcomePass  Outcome = "pass"
	OutcomeSkip  Outcome = "skip"
	OutcomeFail  Outcome = "fail"
	OutcomeError Outcome = "error"
)

// CaseResult is the normalized representation of one conformance case for storage.
type CaseResult struct {
	RunID                 string  `json:"run_id"`
	ChainID               uint64  `json:"chain_id"`
	BlockNumber           uint64  `json:"block_number"`
	Suite                 string  `json:"suite"`
	PoolIndex             uint64  `json:"pool_index"`
	Pool                  string  `json:"pool"`
	LPToken               string  `json:"lp_token,omitempty"`
	Outcome               Outcome `json:"outcome"`
	Reason                string  `json:"reason,omitempty"`
	Detail                string  `json:"detail,omitempty"`
	ReferenceVirtualPrice string  `json:"reference_virtual_price,omitempty"`
	FacadeVirtualPrice    string  `json:"facade_virtual_price,omitempty"`
	CheckedAt             string  `json:"checked_at"`
}

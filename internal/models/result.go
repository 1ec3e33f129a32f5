package models

// Result is the machine-checkable gate signal emitted by one pipeline run.
// CI branches on Passed; everything else is supporting detail.
type Result struct {
	TimedOut  bool       `json:"timed_out"`
	Passed    bool       `json:"passed"`
	Status    GateStatus `json:"status"`
	Threshold float64    `json:"threshold"`
	Score     *float64   `json:"score"`
	Verdict   Verdict    `json:"verdict"`
	Findings  []Finding  `json:"findings"`
	CostUSD   float64    `json:"cost_usd"`
	TokensIn  int64      `json:"tokens_in"`
	TokensOut int64      `json:"tokens_out"`
	Model     string     `json:"model"`
}

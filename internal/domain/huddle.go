package domain

// HuddleAnalysis is the structured summary of a morning huddle transcript.
type HuddleAnalysis struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"action_items"`
}

type HuddleReport struct {
	Transcript string
	Analysis   *HuddleAnalysis
	Error      string
	RawText    string
}

package model

import "time"

// StageStatus tracks one lifecycle stage of a session.
type StageStatus string

const (
	StagePending StageStatus = "PENDING"
	StageDone    StageStatus = "DONE"
	StageFailed  StageStatus = "FAILED"
	StageSkipped StageStatus = "SKIPPED"
)

// Session is the durable record of one user's onboarding state.
// Cached stage results are hints: callers re-verify on chain before
// trusting Deployed or Approved.
type Session struct {
	EOAAddress  string `json:"eoa_address"`
	SafeAddress string `json:"safe_address"`

	Deployed       bool `json:"deployed"`
	Approved       bool `json:"approved"`
	HasCreds       bool `json:"has_creds"`
	Collateralized bool `json:"collateralized"`

	// L2 venue credentials, never echoed over HTTP.
	ApiKey        string `json:"api_key,omitempty"`
	ApiSecret     string `json:"api_secret,omitempty"`
	ApiPassphrase string `json:"api_passphrase,omitempty"`

	Stages    map[string]StageStatus `json:"stages,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (s *Session) HasCredentials() bool {
	return s.ApiKey != "" && s.ApiSecret != "" && s.ApiPassphrase != ""
}

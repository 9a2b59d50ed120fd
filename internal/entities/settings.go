package entities

import "time"

// Settings is the singleton configuration record stored alongside users
// and groups. Unknown keys live in Custom and are addressed through the
// Store's GetSetting/SetSetting.
type Settings struct {
	Maintenance        bool           `json:"maintenance"`
	MaxLimit           int            `json:"max_limit"`
	ResetLimitInterval time.Duration  `json:"reset_limit_interval"`
	LastReset          time.Time      `json:"last_reset"`
	Custom             map[string]any `json:"custom_settings"`
}

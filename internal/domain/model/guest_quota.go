package model

import "time"

// GuestQuota is the usage counter for one anonymous identity.
type GuestQuota struct {
	Identity     string
	Count        int
	WindowExpiry time.Time
}

// QuotaStatus is what check/use report back to callers.
type QuotaStatus struct {
	CanUse    bool `json:"can_use"`
	Used      int  `json:"usage_count"`
	Remaining int  `json:"remaining_usage"`
	Max       int  `json:"max_usage"`
}

// NewQuotaStatus derives the status for a counter value against max.
func NewQuotaStatus(used, max int) QuotaStatus {
	remaining := max - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{CanUse: used < max, Used: used, Remaining: remaining, Max: max}
}

package models

import "time"

// StaffToken is an API token issued to a staff member through the bot.
type StaffToken struct {
	StaffID      int64     `json:"staffId"`
	Token        string    `json:"token"`
	RequestCount int       `json:"requestCount"`
	LastUsedAt   time.Time `json:"lastUsedAt"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// Fresh reports whether the token was issued by the current request.
func (t *StaffToken) Fresh() bool {
	return t.RequestCount <= 1
}

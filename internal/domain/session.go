package domain

import "time"

const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

// Session es la sesion de evaluacion; el token compartible se guarda solo como hash.
type Session struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id,omitempty"`
	Status              string     `json:"status"`
	ShareTokenHash      string     `json:"-"`
	ShareTokenExpiresAt *time.Time `json:"share_token_expires_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

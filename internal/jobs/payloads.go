package jobs

import "time"

// OTP mail payloads carry the plaintext code: the jobs table is the
// only place besides the otps table that ever sees it, and rows are
// short-lived. Keep everything else ID-free and minimal.

type SendVerificationCodePayload struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requestedAt"`
}

type SendResetCodePayload struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requestedAt"`
}

package notifications

import "context"

type SendVerificationCodeInput struct {
	Email string
	Code  string
}

type SendResetCodeInput struct {
	Email string
	Code  string
}

// Notifier delivers OTP mails to a single recipient. Implementations must
// be safe for concurrent use, the worker calls them from multiple goroutines.
type Notifier interface {
	SendVerificationCode(ctx context.Context, input SendVerificationCodeInput) error
	SendResetCode(ctx context.Context, input SendResetCodeInput) error
}

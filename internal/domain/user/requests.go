package user

// Request DTOs for the auth endpoints. Binding tags drive gin's validator,
// field errors surface through the shared BindJSON helper.

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"fullName" binding:"required,min=1,max=100"`
	Role     string `json:"role" binding:"omitempty,max=20"`
}

type LoginRequest struct {
	// username or email
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required,numeric"`
}

type ResendOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Otp         string `json:"otp" binding:"required,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

type VerifyResetOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required,numeric"`
}

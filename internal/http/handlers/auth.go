package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wellnest/wellnest/internal/domain/otp"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/security"
)

// resetExtendWindow is the fresh validity a reset code gets when proven
// through the two-step flow.
const resetExtendWindow = 5 * time.Minute

// Consumer-side contracts, kept small so tests can fake them.

type UserStore interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u user.User) (user.User, error)
}

type OtpEngine interface {
	Generate(ctx context.Context, email string, purpose otp.Purpose) (string, error)
	Validate(ctx context.Context, email, code string, purpose otp.Purpose) (bool, error)
	ValidateAndExtend(ctx context.Context, email, code string, purpose otp.Purpose, extend time.Duration) (bool, error)
}

type TokenIssuer interface {
	Issue(userID, username, role string) (string, error)
}

// CodeDispatcher hands codes to the mail pipeline. Dispatch is
// fire-and-forget: failures are the dispatcher's problem, never the
// caller's.
type CodeDispatcher interface {
	DispatchVerificationCode(ctx context.Context, email, code string)
	DispatchResetCode(ctx context.Context, email, code string)
}

type AuthHandler struct {
	users    UserStore
	otp      OtpEngine
	tokens   TokenIssuer
	dispatch CodeDispatcher
	log      *slog.Logger
}

func NewAuthHandler(users UserStore, otpEngine OtpEngine, tokens TokenIssuer, dispatch CodeDispatcher, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		otp:      otpEngine,
		tokens:   tokens,
		dispatch: dispatch,
		log:      log,
	}
}

type sessionResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	// check order matters: username first, then email
	taken, err := h.users.ExistsByUsername(rctx, req.Username)

	if err != nil {
		RespondInternal(ctx, "Could not register")
		return
	}
	if taken {
		RespondConflict(ctx, "username_taken", "Username is already taken")
		return
	}

	taken, err = h.users.ExistsByEmail(rctx, req.Email)

	if err != nil {
		RespondInternal(ctx, "Could not register")
		return
	}
	if taken {
		RespondConflict(ctx, "email_taken", "Email is already registered")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not register")
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         user.ResolveRole(req.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	u, err = h.users.Save(rctx, u)

	if err != nil {
		// the unique indexes catch what the existence checks raced past
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			RespondConflict(ctx, "username_taken", "Username is already taken")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already registered")
		default:
			RespondInternal(ctx, "Could not register")
		}
		return
	}

	// best effort: the account exists either way, resend-otp recovers
	_ = h.sendCode(ctx, u.Email, otp.PurposeEmailVerification)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Check your email for the verification code.",
		"user":    u,
	})
}

func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var req user.VerifyEmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	u, err := h.users.GetByEmail(rctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not verify email")
		return
	}

	if u.EmailVerified {
		RespondConflict(ctx, "already_verified", "Email is already verified")
		return
	}

	ok, err := h.otp.Validate(rctx, req.Email, req.Otp, otp.PurposeEmailVerification)

	if err != nil {
		RespondInternal(ctx, "Could not verify email")
		return
	}
	if !ok {
		RespondBadRequest(ctx, "Invalid or expired verification code", gin.H{"code": "invalid_or_expired_otp"})
		return
	}

	u.EmailVerified = true
	u.UpdatedAt = time.Now().UTC()

	u, err = h.users.Save(rctx, u)

	if err != nil {
		RespondInternal(ctx, "Could not verify email")
		return
	}

	// verification doubles as first login
	token, err := h.tokens.Issue(u.ID, u.Username, string(u.Role))

	if err != nil {
		RespondInternal(ctx, "Could not verify email")
		return
	}

	h.log.Info("email verified", "userId", u.ID)

	ctx.JSON(http.StatusOK, sessionResponse{Token: token, User: u})
}

func (h *AuthHandler) ResendOtp(ctx *gin.Context) {
	var req user.ResendOtpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	u, err := h.users.GetByEmail(rctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not resend code")
		return
	}

	if u.EmailVerified {
		RespondConflict(ctx, "already_verified", "Email is already verified")
		return
	}

	if err := h.sendCode(ctx, u.Email, otp.PurposeEmailVerification); err != nil {
		RespondInternal(ctx, "Could not resend code")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "A new verification code has been sent."})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	u, err := h.users.GetByUsernameOrEmail(rctx, req.Identifier)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same error as a wrong password, no account enumeration
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid username/email or password")
			return
		}
		RespondInternal(ctx, "Could not log in")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid username/email or password")
		return
	}

	if !u.EmailVerified {
		// deliberate exception to the generic error: the caller needs to
		// know to redirect to verification, and gets a fresh code for it
		_ = h.sendCode(ctx, u.Email, otp.PurposeEmailVerification)

		RespondForbidden(ctx, "email_not_verified", "Email is not verified. A new verification code has been sent.", gin.H{"email": u.Email})
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Username, string(u.Role))

	if err != nil {
		RespondInternal(ctx, "Could not log in")
		return
	}

	h.log.Info("login", "userId", u.ID, "role", u.Role)

	ctx.JSON(http.StatusOK, sessionResponse{Token: token, User: u})
}

func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	_, err := h.users.GetByEmail(rctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not process request")
		return
	}

	if err := h.sendCode(ctx, req.Email, otp.PurposePasswordReset); err != nil {
		RespondInternal(ctx, "Could not process request")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "A password reset code has been sent."})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	u, err := h.users.GetByEmail(rctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not reset password")
		return
	}

	// consuming validate: the code is spent here
	ok, err := h.otp.Validate(rctx, req.Email, req.Otp, otp.PurposePasswordReset)

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}
	if !ok {
		RespondBadRequest(ctx, "Invalid or expired reset code", gin.H{"code": "invalid_or_expired_otp"})
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()

	if _, err := h.users.Save(rctx, u); err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	h.log.Info("password reset", "userId", u.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can now log in."})
}

// VerifyResetOtp proves a reset code without spending it, extending its
// validity so the user has a fresh window to submit the new password.
func (h *AuthHandler) VerifyResetOtp(ctx *gin.Context) {
	var req user.VerifyResetOtpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	_, err := h.users.GetByEmail(rctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not verify code")
		return
	}

	ok, err := h.otp.ValidateAndExtend(rctx, req.Email, req.Otp, otp.PurposePasswordReset, resetExtendWindow)

	if err != nil {
		RespondInternal(ctx, "Could not verify code")
		return
	}
	if !ok {
		RespondBadRequest(ctx, "Invalid or expired reset code", gin.H{"code": "invalid_or_expired_otp"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Code verified. Submit your new password."})
}

// sendCode generates a fresh code (superseding any prior one) and hands it
// to the dispatcher. Dispatch is fire-and-forget; a generation failure is
// returned because without the stored code the send has no effect.
func (h *AuthHandler) sendCode(ctx *gin.Context, email string, purpose otp.Purpose) error {
	rctx := ctx.Request.Context()

	code, err := h.otp.Generate(rctx, email, purpose)

	if err != nil {
		h.log.Error("otp generation failed", "purpose", purpose, "error", err)
		return err
	}

	switch purpose {
	case otp.PurposePasswordReset:
		h.dispatch.DispatchResetCode(rctx, email, code)
	default:
		h.dispatch.DispatchVerificationCode(rctx, email, code)
	}

	return nil
}

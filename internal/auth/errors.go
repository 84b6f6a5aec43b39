package auth

import (
	"net/http"

	"github.com/lshop/accounts/internal/apperror"
)

var (
	ErrInvalidPhone         = apperror.New(apperror.KindValidation, "INVALID_PHONE", "Invalid phone number")
	ErrDuplicateEmail       = apperror.New(apperror.KindConflict, "DUPLICATE_EMAIL", "An account with this email already exists")
	ErrAccountNotFound      = apperror.New(apperror.KindNotFound, "NOT_FOUND", "user not found")
	ErrConfirmationNotFound = apperror.New(apperror.KindNotFound, "NOT_FOUND", "Invalid confirmation token or code")
	ErrAlreadyConfirmed     = apperror.New(apperror.KindValidation, "ALREADY_CONFIRMED", "Account already confirmed").WithStatus(http.StatusBadRequest)
	ErrInvalidCredentials   = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email address or password")
	ErrUnauthorised         = apperror.New(apperror.KindUnauthorized, "UNAUTHORISED", "You are not authorized to perform this action")
	ErrConfirmationRequired = apperror.New(apperror.KindValidation, "CONFIRMATION_REQUIRED", "Account confirmation required").WithStatus(http.StatusBadRequest)
	ErrInvalidResetToken    = apperror.New(apperror.KindValidation, "INVALID_TOKEN", "Invalid or expired password reset token").WithStatus(http.StatusBadRequest)
	ErrPasswordMismatch     = apperror.New(apperror.KindValidation, "MISMATCH", "New password and confirmation do not match")
)

package dto

// ResetPasswordRequest is the POST /admin/users/:id/password payload.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

package attendance

import "errors"

// Scan failure modes, each mapped to its own HTTP status by the API layer.
// Generic validation/not-found/conflict cases use the apperr sentinels.
var (
	// ErrQRInvalid: the presented token matches no session.
	ErrQRInvalid = errors.New("invalid QR code")
	// ErrQRExpired: the session exists but its expiry has passed.
	ErrQRExpired = errors.New("QR code expired")
	// ErrNotEnrolled: the student lacks an enrollment for the session's
	// course. An authorization error, not a data error.
	ErrNotEnrolled = errors.New("not enrolled in this course")
	// ErrDuplicateAttendance: a record already exists for this
	// (session, student) pair.
	ErrDuplicateAttendance = errors.New("attendance already marked")
)

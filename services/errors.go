package services

import "errors"

// Общие ошибки, используемые в сервисах обмена и маппинге HTTP.
var (
	// Ошибки бизнес-правил жеребьёвки
	ErrNotRegistered            = errors.New("user is not registered for the gift exchange")
	ErrAlreadyMatched           = errors.New("participant already has a recipient")
	ErrNoCandidates             = errors.New("no available recipients left to draw")
	ErrNoMatch                  = errors.New("participant has no recipient to confirm a gift for")
	ErrInsufficientParticipants = errors.New("at least 2 waiting participants are required for a full draw")

	// Ошибки валидации
	ErrWishlistRequired = errors.New("wishlist is required")

	// Ошибки авторизации и инфраструктуры
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrExportUnavailable  = errors.New("result export storage is not configured")
)

package models

import "time"

// GiftStatus представляет статусы участника обмена, соответствующие ENUM в БД.
type GiftStatus string

const (
	StatusWaiting GiftStatus = "waiting"
	StatusMatched GiftStatus = "matched"
	StatusGifted  GiftStatus = "gifted"
)

// Participant — одна строка на зарегистрированного пользователя.
// RecipientID устанавливается ровно один раз, при жеребьёвке.
type Participant struct {
	UserID       int        `json:"user_id"`
	Wishlist     string     `json:"wishlist"`
	ReminderNote *string    `json:"reminder_note,omitempty"`
	Status       GiftStatus `json:"status"`
	RecipientID  *int       `json:"recipient_id,omitempty"`
	MatchedAt    *time.Time `json:"matched_at,omitempty"`
	GiftedAt     *time.Time `json:"gifted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Заполняется при запросах с JOIN на users.
	User *User `json:"user,omitempty"`
}

// HasRecipient reports whether the participant has already drawn someone.
func (p *Participant) HasRecipient() bool {
	return p.RecipientID != nil
}

// ValidGiftStatusTransition проверяет допустимость перехода статуса.
// Разрешены только waiting -> matched и matched -> gifted.
func ValidGiftStatusTransition(from, to GiftStatus) bool {
	switch from {
	case StatusWaiting:
		return to == StatusMatched
	case StatusMatched:
		return to == StatusGifted
	default:
		return false
	}
}

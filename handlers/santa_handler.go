package handlers

import (
	"net/http"

	"github.com/corpfest/secret-santa/middleware"
	"github.com/corpfest/secret-santa/services"
)

type SantaHandler struct {
	exchangeService *services.ExchangeService
}

func NewSantaHandler(es *services.ExchangeService) *SantaHandler {
	return &SantaHandler{exchangeService: es}
}

// Register регистрирует участника обмена (или обновляет wishlist при
// повторной регистрации) и возвращает полное состояние.
func (h *SantaHandler) Register(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		Wishlist     string  `json:"wishlist"`
		ReminderNote *string `json:"reminder_note"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.exchangeService.Register(r.Context(), currentUserID, input.Wishlist, input.ReminderNote)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetState возвращает публичный список и собственное представление.
func (h *SantaHandler) GetState(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	state, err := h.exchangeService.GetState(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Draw проводит одиночную жеребьёвку для текущего пользователя.
func (h *SantaHandler) Draw(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	state, err := h.exchangeService.Draw(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmGifted подтверждает вручение подарка.
func (h *SantaHandler) ConfirmGifted(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	state, err := h.exchangeService.ConfirmGifted(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateReminder обновляет заметку-напоминание текущего пользователя.
func (h *SantaHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		ReminderNote *string `json:"reminder_note"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.exchangeService.UpdateReminder(r.Context(), currentUserID, input.ReminderNote)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

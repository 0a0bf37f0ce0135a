package handlers

import (
	"net/http"

	"github.com/corpfest/secret-santa/services"
)

// AdminHandler обслуживает привилегированные операции обмена.
// Проверка роли выполняется в middleware.Authorize на уровне маршрутов.
type AdminHandler struct {
	exchangeService *services.ExchangeService
	exportService   *services.ExportService
}

func NewAdminHandler(es *services.ExchangeService, xs *services.ExportService) *AdminHandler {
	return &AdminHandler{
		exchangeService: es,
		exportService:   xs,
	}
}

// GetState возвращает полное административное представление со
// счётчиками и разрешёнными получателями.
func (h *AdminHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.exchangeService.GetAdminState(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DrawAll запускает массовую жеребьёвку всех ожидающих участников.
func (h *AdminHandler) DrawAll(w http.ResponseWriter, r *http.Request) {
	state, err := h.exchangeService.DrawAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export выгружает снимок результатов в объектное хранилище.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, err := h.exportService.ExportResults(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

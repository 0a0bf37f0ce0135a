package handlers

import (
	"log"
	"net/http"

	"github.com/corpfest/secret-santa/santa"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: ограничить Origin доменом платформы перед продакшеном.
		return true
	},
}

type WebSocketHandler struct {
	hub *santa.Hub
}

func NewWebSocketHandler(hub *santa.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs подключает клиента дашборда к потоку агрегатных событий обмена.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		log.Printf("Failed to upgrade dashboard connection: %v", err)
		return
	}

	client := &santa.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

package routes

import (
	"github.com/corpfest/secret-santa/handlers"
	"github.com/corpfest/secret-santa/middleware"
	"github.com/corpfest/secret-santa/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	santaHandler *handlers.SantaHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/santa", func(r chi.Router) {
		// Маршруты участников
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/register", santaHandler.Register)
			r.Get("/state", santaHandler.GetState)
			r.Post("/draw", santaHandler.Draw)
			r.Post("/gifted", santaHandler.ConfirmGifted)
			r.Patch("/reminder", santaHandler.UpdateReminder)
		})

		// Привилегированные маршруты администратора
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Get("/", adminHandler.GetState)
			r.Post("/draw", adminHandler.DrawAll)
			r.Post("/export", adminHandler.Export)
		})
	})

	// Поток агрегатных событий для дашборда
	router.Get("/ws/santa", webSocketHandler.ServeWs)
}

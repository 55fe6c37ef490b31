// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"memorylane/internal/delivery/http/middleware"
	"memorylane/internal/delivery/http/router/handler"
	"memorylane/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	SessionHandler *handler.SessionHandler
	PatientHandler *handler.PatientHandler
	MemoryHandler  *handler.MemoryHandler
	EventHandler   *handler.EventHandler
	NoteHandler    *handler.NoteHandler
	PeopleHandler  *handler.PeopleHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	params RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{params: params}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	p := r.params

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Caregiver account routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", p.AuthHandler.Register)
		authGroup.POST("/login", p.AuthHandler.Login)
		authGroup.POST("/refresh", p.AuthHandler.Refresh)
	}

	// Patient device login flow; no JWT, the access ID is the credential
	patientGroup := e.Group("/patient")
	{
		patientGroup.POST("/login", p.PatientHandler.PatientLogin)
		patientGroup.POST("/logout", p.PatientHandler.PatientLogout)
	}

	// Resolved device session
	sessionGroup := e.Group("/session")
	{
		sessionGroup.GET("", p.SessionHandler.Get)
		sessionGroup.GET("/stream", p.SessionHandler.Stream)
	}

	// Everything below requires an authenticated caregiver token
	me := e.Group("/me")
	me.Use(p.AuthMiddleware.Authenticate)
	{
		me.GET("", p.AuthHandler.Profile)
		me.POST("/logout", p.AuthHandler.Logout)
		me.PATCH("/display-name", p.AuthHandler.UpdateDisplayName)
		me.POST("/password", p.AuthHandler.ChangePassword)
	}

	patients := e.Group("/patients")
	patients.Use(p.AuthMiddleware.Authenticate)
	patients.Use(p.AuthMiddleware.RequireRole(entity.RoleCaregiver.String()))
	{
		patients.POST("", p.PatientHandler.CreatePatient)
		patients.POST("/join", p.PatientHandler.JoinPatient)
		patients.POST("/leave", p.PatientHandler.LeavePatient)
		patients.GET("/access-code", p.PatientHandler.AccessCode)
	}

	memories := e.Group("/memories")
	memories.Use(p.AuthMiddleware.Authenticate)
	{
		memories.POST("", p.MemoryHandler.Create)
		memories.GET("", p.MemoryHandler.List)
		memories.GET("/stream", p.MemoryHandler.Stream)
		memories.GET("/search", p.MemoryHandler.Search)
		memories.GET("/:id", p.MemoryHandler.Get)
		memories.DELETE("/:id", p.MemoryHandler.Delete)
	}

	events := e.Group("/events")
	events.Use(p.AuthMiddleware.Authenticate)
	{
		events.POST("", p.EventHandler.Create)
		events.GET("", p.EventHandler.List)
		events.GET("/stream", p.EventHandler.Stream)
		events.GET("/:id", p.EventHandler.Get)
		events.GET("/:id/memories", p.MemoryHandler.ForEvent)
		events.DELETE("/:id", p.EventHandler.Delete)
	}

	notes := e.Group("/notes")
	notes.Use(p.AuthMiddleware.Authenticate)
	{
		notes.GET("/latest", p.NoteHandler.Latest)
		notes.GET("/stream", p.NoteHandler.Stream)
		notes.POST("/sessions", p.NoteHandler.StartSession)
		notes.POST("/sessions/:id/notes", p.NoteHandler.Append)
		notes.POST("/sessions/:id/summarize", p.NoteHandler.Summarize)
	}

	people := e.Group("/people")
	people.Use(p.AuthMiddleware.Authenticate)
	{
		people.POST("", p.PeopleHandler.Create)
		people.GET("", p.PeopleHandler.List)
		people.GET("/:id", p.PeopleHandler.Get)
		people.GET("/:id/memories", p.MemoryHandler.ForPerson)
		people.DELETE("/:id", p.PeopleHandler.Delete)
	}
}

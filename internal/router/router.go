package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/meetsync/backend/api/handler"
)

type Handlers struct {
	Meeting    *apiHandler.MeetingHandler
	Recurrence *apiHandler.RecurrenceHandler
	Task       *apiHandler.TaskHandler
	Health     *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Meeting routes
	r.GET("/api/v1/meetings", authMiddleware(handlers.Meeting.GetMeetings))
	r.POST("/api/v1/meetings", authMiddleware(handlers.Meeting.CreateMeeting))
	r.GET("/api/v1/meetings/{id}", authMiddleware(handlers.Meeting.GetMeeting))
	r.PUT("/api/v1/meetings/{id}", authMiddleware(handlers.Meeting.UpdateMeeting))
	r.DELETE("/api/v1/meetings/{id}", authMiddleware(handlers.Meeting.DeleteMeeting))
	r.POST("/api/v1/meetings/{id}/complete", authMiddleware(handlers.Meeting.CompleteMeeting))
	r.GET("/api/v1/meetings/{id}/next", authMiddleware(handlers.Meeting.GetSubsequentMeeting))
	r.GET("/api/v1/meetings/{id}/attendees", authMiddleware(handlers.Meeting.GetAttendees))
	r.POST("/api/v1/meetings/{id}/attendees", authMiddleware(handlers.Meeting.AddAttendees))
	r.GET("/api/v1/meetings/{id}/tasks", authMiddleware(handlers.Task.GetTasksByMeeting))
	r.POST("/api/v1/meetings/{id}/tasks", authMiddleware(handlers.Task.LinkTaskToMeeting))

	// Recurrence routes
	r.GET("/api/v1/recurrences", authMiddleware(handlers.Recurrence.GetRecurrences))
	r.POST("/api/v1/recurrences", authMiddleware(handlers.Recurrence.CreateRecurrence))
	r.GET("/api/v1/recurrences/{id}", authMiddleware(handlers.Recurrence.GetRecurrence))
	r.PUT("/api/v1/recurrences/{id}", authMiddleware(handlers.Recurrence.UpdateRecurrence))
	r.DELETE("/api/v1/recurrences/{id}", authMiddleware(handlers.Recurrence.DeleteRecurrence))
	r.GET("/api/v1/recurrences/{id}/next-date", authMiddleware(handlers.Recurrence.GetNextDate))
	r.POST("/api/v1/recurrences/{id}/meetings", authMiddleware(handlers.Recurrence.CreateRecurringMeetings))

	// Task routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))

	return r
}

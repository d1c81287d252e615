// handlers/discussion_routes.go
package handlers

import (
	"zorapad/middleware"
	"zorapad/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDiscussionRoutes(app *fiber.App, discussionService *services.DiscussionService) {
	// 🔓 Reads are public (Gateway-authed only)
	app.Get("/chapters/:id/comments", discussionService.GetCommentsByChapter)
	app.Get("/comments/:id/replies", discussionService.GetRepliesByComment)
	app.Get("/novels/:id/requests", discussionService.GetRequestsByNovel)
	app.Get("/requests/:id/replies", discussionService.GetRequestReplies)

	// 🔐 Writes require user context
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/chapters/:id/comments", discussionService.CreateComment)
	secured.Post("/comments/:id/replies", discussionService.CreateReply)
	secured.Post("/novels/:id/requests", discussionService.CreateRequest)
	secured.Post("/requests/:id/replies", discussionService.CreateRequestReply)
}

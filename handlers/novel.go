// handlers/novel_routes.go
package handlers

import (
	"zorapad/middleware"
	"zorapad/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNovelRoutes(app *fiber.App, novelService *services.NovelService, marketService *services.MarketService) {
	// 🔓 Public routes — no user context, but still require Gateway auth
	app.Get("/novels", novelService.GetAllNovels)
	app.Get("/novels/:id", novelService.GetNovel)
	app.Get("/novels/:id/token-price", marketService.GetNovelTokenPrice)
	app.Get("/users/search", novelService.SearchUsers)

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Chapter listing wants the optional identity: the author sees drafts
	secured.Get("/novels/:id/chapters", novelService.GetChapters)

	secured.Post("/novels", novelService.CreateNovel)
	secured.Put("/novels/:id", novelService.UpdateNovel)
	secured.Patch("/novels/:id", novelService.UpdateNovel)
	secured.Delete("/novels/:id", novelService.DeleteNovel)

	secured.Post("/novels/:id/chapters", novelService.CreateChapter)
	secured.Post("/novels/:id/import", novelService.ImportManuscript)
}

// handlers/reward_routes.go
package handlers

import (
	"zorapad/middleware"
	"zorapad/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(
	app *fiber.App,
	engagementService *services.EngagementService,
	awardService *services.AwardService,
	claimService *services.ClaimService,
	rewardsService *services.RewardsService,
	authClient *services.AuthServiceClient,
) {
	// 🔓 Engagement summaries are public reads
	app.Get("/comments/:id/engagement", engagementService.CommentSummary)
	app.Get("/replies/:id/engagement", engagementService.ReplySummary)
	app.Get("/request-replies/:id/engagement", engagementService.RequestReplySummary)

	// 🔐 Everything that writes the ledger requires user context
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Upvotes
	secured.Post("/comments/:id/upvote", engagementService.UpvoteComment)
	secured.Post("/replies/:id/upvote", engagementService.UpvoteReply)
	secured.Post("/request-replies/:id/upvote", engagementService.UpvoteRequestReply)

	// Stakes
	secured.Post("/comments/:id/stake", engagementService.StakeComment)
	secured.Post("/replies/:id/stake", engagementService.StakeReply)
	secured.Post("/request-replies/:id/stake", engagementService.StakeRequestReply)
	secured.Post("/novels/:id/stake", engagementService.StakeNovel)

	// Awards — guard-gated inside the service
	secured.Post("/comments/:id/award", awardService.AwardCommentEndpoint)
	secured.Post("/replies/:id/award", awardService.AwardReplyEndpoint)
	secured.Post("/requests/:id/award", awardService.AwardRequestEndpoint)

	// Claims
	secured.Post("/stakes/:id/claim", claimService.ClaimStakeEndpoint)
	secured.Post("/comments/:id/claim", claimService.ClaimCommentBountyEndpoint)
	secured.Post("/replies/:id/claim", claimService.ClaimReplyBountyEndpoint)
	secured.Post("/novel-stakes/:id/unstake", claimService.UnstakeNovelEndpoint)

	// Dashboards
	secured.Get("/user/rewards", rewardsService.GetUserRewardsSummary)
	secured.Get("/user/upvoted", rewardsService.GetUserUpvotedTargets)
	secured.Get("/user/novel-stakes", rewardsService.GetUserNovelStakes)

	// SSE stream authenticates via query params (EventSource cannot set headers)
	app.Get("/user/rewards/stream", middleware.SSEAuthMiddleware(authClient), rewardsService.StreamUserAwardEvents)
}

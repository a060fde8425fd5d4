package controller

import (
	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/serverutils"
	"ragchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetAllSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	SelectSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SubmitQuery(ctx *fiber.Ctx) error
	UpdateDraft(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
	DismissError(ctx *fiber.Ctx) error
}

type chatController struct {
	sessionService      service.ISessionService
	conversationService service.IConversationService
}

func NewChatController(sessionService service.ISessionService, conversationService service.IConversationService) IChatController {
	return &chatController{
		sessionService:      sessionService,
		conversationService: conversationService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("sessions", c.GetAllSessions)
	h.Post("sessions", c.CreateSession)
	h.Get("sessions/:id", c.GetSession)
	h.Put("sessions/:id/select", c.SelectSession)
	h.Delete("sessions/:id", c.DeleteSession)
	h.Post("sessions/:id/query", c.SubmitQuery)
	h.Put("sessions/:id/draft", c.UpdateDraft)
	h.Get("state", c.GetState)
	h.Delete("state/error", c.DismissError)
}

func (c *chatController) GetAllSessions(ctx *fiber.Ctx) error {
	res := c.sessionService.GetAllSessions()
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res := c.sessionService.CreateSession()
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetSession(ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *chatController) SelectSession(ctx *fiber.Ctx) error {
	res, err := c.sessionService.SelectSession(ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	res, err := c.sessionService.DeleteSession(ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", res))
}

// SubmitQuery blocks until the backend answers; progress is visible to other
// renderers through GetState and the socket.
func (c *chatController) SubmitQuery(ctx *fiber.Ctx) error {
	var req dto.SubmitQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.conversationService.SubmitQuery(ctx.UserContext(), ctx.Params("id"), req.Query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit query", res))
}

func (c *chatController) UpdateDraft(ctx *fiber.Ctx) error {
	var req dto.UpdateDraftRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := c.conversationService.SetDraft(ctx.Params("id"), req.Text); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Draft saved", nil))
}

func (c *chatController) GetState(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get state", c.conversationService.State()))
}

func (c *chatController) DismissError(ctx *fiber.Ctx) error {
	c.conversationService.DismissError()
	return ctx.JSON(serverutils.SuccessResponse[any]("Error dismissed", nil))
}

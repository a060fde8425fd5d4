package controller

import (
	"io"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/serverutils"
	"ragchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	IngestText(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type documentController struct {
	service        service.IDocumentService
	maxUploadBytes int64
}

func NewDocumentController(service service.IDocumentService, maxUploadBytes int64) IDocumentController {
	return &documentController{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("sessions/:id/documents/upload", c.Upload)
	h.Post("sessions/:id/documents/text", c.IngestText)
	h.Get("health", c.Health)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if c.maxUploadBytes > 0 && fileHeader.Size > c.maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file is too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), ctx.Params("id"), fileHeader.Filename, content, ctx.FormValue("title"))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) IngestText(ctx *fiber.Ctx) error {
	var req dto.ProcessTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.IngestText(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success process text", res))
}

func (c *documentController) Health(ctx *fiber.Ctx) error {
	res, err := c.service.Health(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check backend health", res))
}

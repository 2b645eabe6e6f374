package controller

import (
	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/pkg/serverutils"
	"chat-relay-be/internal/service"
	internalWS "chat-relay-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendPrompt(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ListProviderCalls(ctx *fiber.Ctx) error
	Watch(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	hub         *internalWS.Hub // nil disables the live feed
}

func NewChatController(chatService service.IChatService, hub *internalWS.Hub) IChatController {
	return &chatController{
		chatService: chatService,
		hub:         hub,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.SendPrompt)
	h.Get(":chatId", c.GetHistory)
	h.Get(":chatId/calls", c.ListProviderCalls)
	if c.hub != nil {
		h.Get(":chatId/ws", c.Watch)
	}
}

// SendPrompt answers with the reply text, or a diagnostic when the provider failed.
func (c *chatController) SendPrompt(ctx *fiber.Ctx) error {
	var req dto.SendPromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	chatId, err := uuid.Parse(req.ChatId)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chatId")
	}

	reply, err := c.chatService.SendPrompt(ctx.UserContext(), chatId, req.Prompt)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return ctx.SendString(reply)
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chatId")
	}

	res, err := c.chatService.GetHistory(ctx.UserContext(), chatId)
	if err != nil {
		return err
	}
	if res == nil {
		res = []*dto.ChatMessageResponse{}
	}

	return ctx.JSON(res)
}

// ListProviderCalls serves the audit rows of the chat, newest first.
func (c *chatController) ListProviderCalls(ctx *fiber.Ctx) error {
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chatId")
	}

	status := ctx.Query("status")
	switch status {
	case "", entity.ProviderCallSuccess, entity.ProviderCallNoResponse, entity.ProviderCallError:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	res, err := c.chatService.ListProviderCalls(ctx.UserContext(), chatId, status)
	if err != nil {
		return err
	}
	if res == nil {
		res = []*dto.ProviderCallResponse{}
	}

	return ctx.JSON(res)
}

// Watch upgrades to a websocket that receives every turn recorded for the chat.
func (c *chatController) Watch(ctx *fiber.Ctx) error {
	chatId, err := uuid.Parse(ctx.Params("chatId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chatId")
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(c.hub, conn, chatId)
	})(ctx)
}

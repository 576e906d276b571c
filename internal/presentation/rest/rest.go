package rest

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sitepilot/crm-backend/internal/application"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/application/errs"
)

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

func RegisterHandlers(app *fiber.App, s *Server, identity fiber.Handler) {
	app.Post("/payments/webhook", s.PaymentWebhook)

	api := app.Group("/", identity)
	api.Post("/orders", s.CreateOrder)
	api.Get("/orders/:id", s.GetOrder)
	api.Post("/orders/:id/onboarding", s.SubmitOnboarding)
	api.Post("/orders/:id/build", s.TriggerBuild)
	api.Get("/orders/:id/log", s.ReadLog)
	api.Get("/orders/:id/progress", s.GetProgress)
	api.Patch("/orders/:id/status", s.UpdateStatus)
	api.Post("/orders/:id/generation/reset", s.ResetOneGeneration)
	api.Get("/generations/empty", s.ScanEmptyGenerations)
	api.Post("/generations/empty/reset", s.ResetEmptyGenerations)
}

func orderID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

// fail maps application errors onto status codes: missing entities are 404,
// illegal transitions 409, everything else 500.
func fail(c *fiber.Ctx, err error) error {
	var notFound errs.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	var invalidState errs.InvalidStateError
	if errors.As(err, &invalidState) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}

func (s *Server) CreateOrder(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	id, err := s.handlers.CreateOrder.Execute(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateOrderResponse{OrderID: id})
}

func (s *Server) GetOrder(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	order, err := s.handlers.GetOrder.Query(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (s *Server) SubmitOnboarding(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	var req dto.SubmitOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := s.handlers.SubmitOnboarding.Execute(c.Context(), id, &req); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) TriggerBuild(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	status, err := s.handlers.TriggerBuild.Execute(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.TriggerBuildResponse{Status: string(status)})
}

func (s *Server) ReadLog(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	logResp, err := s.handlers.ReadLog.Query(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(logResp)
}

func (s *Server) GetProgress(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	progress, err := s.handlers.GetProgress.Query(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(progress)
}

func (s *Server) UpdateStatus(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if !consts.IsOrderStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "unknown status " + req.Status})
	}

	status, err := s.handlers.UpdateStatus.Execute(c.Context(), id, consts.OrderStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.UpdateStatusResponse{Status: string(status)})
}

func (s *Server) ResetOneGeneration(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if err := s.handlers.ResetGeneration.Execute(c.Context(), id); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.ResetOneResponse{OK: true})
}

func (s *Server) ScanEmptyGenerations(c *fiber.Ctx) error {
	scan, err := s.handlers.ScanEmpty.Query(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(scan)
}

func (s *Server) ResetEmptyGenerations(c *fiber.Ctx) error {
	count, err := s.handlers.ResetAllEmpty.Execute(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.ResetAllResponse{ResetCount: count})
}

func (s *Server) PaymentWebhook(c *fiber.Ctx) error {
	if err := s.handlers.Payment.Webhook(c.Context(), c.Body(), c.Get("Stripe-Signature")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.SendStatus(fiber.StatusOK)
}

package trail

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req Trail
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		if req.StartPoint != nil && !req.StartPoint.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "start_point out of bounds")
		}
		if req.EndPoint != nil && !req.EndPoint.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "end_point out of bounds")
		}
		req.CreatedBy, _ = c.Locals("user_id").(string)
		t, err := svc.CreateTrail(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	r.Get("/search", func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		if radius == 0 {
			radius = 25
		}
		results, err := svc.Search(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(results)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.GetTrail(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "trail not found")
		}
		return c.JSON(t)
	})

	r.Delete("/:id", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteTrail(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/checkpoints", func(c *fiber.Ctx) error {
		checkpoints, err := svc.Checkpoints(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(checkpoints)
	})

	r.Post("/:id/checkpoints", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req Checkpoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		if !req.Coordinates.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "coordinates out of bounds")
		}
		req.TrailID = c.Params("id")
		cp, err := svc.CreateCheckpoint(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(cp)
	})

	r.Put("/checkpoints/:checkpointID", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req Checkpoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cp, err := svc.UpdateCheckpoint(c.Context(), c.Params("checkpointID"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(cp)
	})

	r.Delete("/checkpoints/:checkpointID", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteCheckpoint(c.Context(), c.Params("checkpointID")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

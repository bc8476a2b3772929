package completion

import (
	"errors"

	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	TrailID       string    `json:"trail_id"`
	PhotoLocation geo.Point `json:"photo_location"`
	ProofPhotoURL string    `json:"proof_photo_url"`
}

type checkinRequest struct {
	CheckpointID  string    `json:"checkpoint_id"`
	PhotoLocation geo.Point `json:"photo_location"`
	ProofPhotoURL string    `json:"proof_photo_url"`
}

type reviewRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, adminMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TrailID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trail_id required")
		}
		if !req.PhotoLocation.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "photo_location out of bounds")
		}
		userID, _ := c.Locals("user_id").(string)
		comp, err := svc.Submit(c.Context(), userID, req.TrailID, req.PhotoLocation, req.ProofPhotoURL)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comp)
	})

	r.Get("/mine", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		completions, err := svc.ListForUser(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(completions)
	})

	r.Get("/pending", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		completions, err := svc.PendingReviews(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(completions)
	})

	r.Patch("/:id/review", authMiddleware, adminMiddleware, func(c *fiber.Ctx) error {
		var req reviewRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Status != StatusApproved && req.Status != StatusRejected {
			return fiber.NewError(fiber.StatusBadRequest, "status must be approved or rejected")
		}
		comp, err := svc.Review(c.Context(), c.Params("id"), req.Status, req.Note)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(comp)
	})

	r.Post("/checkins", authMiddleware, func(c *fiber.Ctx) error {
		var req checkinRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.CheckpointID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "checkpoint_id required")
		}
		if !req.PhotoLocation.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "photo_location out of bounds")
		}
		userID, _ := c.Locals("user_id").(string)
		cc, err := svc.SubmitCheckin(c.Context(), userID, req.CheckpointID, req.PhotoLocation, req.ProofPhotoURL)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cc)
	})
}

func errorResponse(c *fiber.Ctx, err error) error {
	var tooFar *TooFarError
	switch {
	case errors.As(err, &tooFar):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "too_far",
			"distance_m": tooFar.DistanceM,
		})
	case errors.Is(err, ErrDuplicateSubmission):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrAlreadyReviewed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrTrailNotFound),
		errors.Is(err, ErrCheckpointNotFound),
		errors.Is(err, ErrCompletionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotCheckable),
		errors.Is(err, ErrDistanceUnavailable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

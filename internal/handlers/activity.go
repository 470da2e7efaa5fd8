package handlers

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"github.com/example/referdby/internal/middleware"
	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
	"github.com/example/referdby/internal/utils"
)

const maxReceiptBytes = 10 << 20

// ActivityHandler exposes scans and settlements.
type ActivityHandler struct {
	activities *services.ActivityService
	processor  *services.Processor
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *services.ActivityService, processor *services.Processor) *ActivityHandler {
	return &ActivityHandler{activities: activities, processor: processor}
}

func currentActor(c *fiber.Ctx) (services.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return services.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return actor, nil
}

// CreateReferralScan opens a referral-track activity for a checked-in customer.
func (h *ActivityHandler) CreateReferralScan(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.ReferralScanInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.RecordReferralScan(c.UserContext(), actor, req)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": activity})
}

// CreateRedeemScan opens a redemption-track activity.
func (h *ActivityHandler) CreateRedeemScan(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req services.RedeemScanInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.activities.RecordRedeemScan(c.UserContext(), actor, req)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": activity})
}

// Present marks a scanned activity as presented to staff.
func (h *ActivityHandler) Present(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	activity, err := h.activities.MarkPresented(c.UserContext(), actor, id)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": activity})
}

type processBillRequest struct {
	Amount   string `json:"amount" form:"amount"`
	Currency string `json:"currency" form:"currency"`
	Notes    string `json:"notes" form:"notes"`
}

// ProcessBill settles a referral-track activity. Accepts JSON or a multipart
// form with an optional "receipt" image.
func (h *ActivityHandler) ProcessBill(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req processBillRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidAmount)
	}
	receipt, closeReceipt, err := receiptFromForm(c)
	if err != nil {
		return err
	}
	defer closeReceipt()

	result, err := h.processor.ProcessBill(c.UserContext(), actor, services.BillInput{
		ActivityID: id,
		Amount:     amount,
		Currency:   req.Currency,
		Receipt:    receipt,
		Notes:      req.Notes,
	})
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}

type processRedemptionRequest struct {
	BillTotal  string `json:"bill_total" form:"bill_total"`
	Currency   string `json:"currency" form:"currency"`
	Points     string `json:"points" form:"points"`
	IsTakeaway *bool  `json:"is_takeaway" form:"is_takeaway"`
	Notes      string `json:"notes" form:"notes"`
}

// ProcessRedemption spends points against a bill.
func (h *ActivityHandler) ProcessRedemption(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req processRedemptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	billTotal, err := decimal.NewFromString(strings.TrimSpace(req.BillTotal))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidAmount)
	}
	points, err := decimal.NewFromString(strings.TrimSpace(req.Points))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidPoints)
	}
	receipt, closeReceipt, err := receiptFromForm(c)
	if err != nil {
		return err
	}
	defer closeReceipt()

	result, err := h.processor.ProcessRedemption(c.UserContext(), actor, services.RedemptionInput{
		ActivityID: id,
		BillTotal:  billTotal,
		Currency:   req.Currency,
		Points:     points,
		IsTakeaway: req.IsTakeaway,
		Receipt:    receipt,
		Notes:      req.Notes,
	})
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}

type reprocessRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Reprocess recomputes a pending activity's point fields.
func (h *ActivityHandler) Reprocess(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req reprocessRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	in := services.ReprocessInput{ActivityID: id, Currency: req.Currency}
	if strings.TrimSpace(req.Amount) != "" {
		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			return writeSettlementError(c, services.ErrInvalidAmount)
		}
		in.Amount = &amount
	}

	activity, err := h.processor.Reprocess(c.UserContext(), actor, in)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": activity})
}

// List returns the activities visible to the caller.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	pg := utils.ParsePagination(c)

	items, total, err := h.activities.ListActivities(c.UserContext(), actor, services.ActivityFilter{
		State:  models.ActivityState(c.Query("state")),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// receiptFromForm reads the optional "receipt" file of a multipart request.
// Only a missing part means no receipt; a form that cannot be read is a 400.
func receiptFromForm(c *fiber.Ctx) (*services.ReceiptUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	header, err := c.FormFile("receipt")
	switch {
	case errors.Is(err, fasthttp.ErrMissingFile):
		return nil, noop, nil
	case err != nil:
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "malformed multipart form")
	case header == nil:
		return nil, noop, nil
	}
	if header.Size > maxReceiptBytes {
		return nil, noop, fiber.NewError(fiber.StatusRequestEntityTooLarge, "receipt is larger than 10MB")
	}
	contentType := header.Header.Get(fiber.HeaderContentType)
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return nil, noop, fiber.NewError(fiber.StatusUnsupportedMediaType, "receipt must be an image or PDF")
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "unreadable receipt")
	}
	return receiptUpload(header, file), func() { _ = file.Close() }, nil
}

func receiptUpload(header *multipart.FileHeader, file multipart.File) *services.ReceiptUpload {
	return &services.ReceiptUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	}
}

package payment

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/access"
	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/request"
	"github.com/studyhub/studyhub-server-go/pkg/response"
	"github.com/studyhub/studyhub-server-go/pkg/stripe"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// Handler processes payment HTTP requests.
type Handler struct {
	db           *gorm.DB
	logger       *slog.Logger
	stripeClient *stripe.Client
}

// NewHandler constructs a payment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, stripeClient *stripe.Client) *Handler {
	return &Handler{
		db:           db,
		logger:       logger,
		stripeClient: stripeClient,
	}
}

// List returns the payment history with filtering and date ordering.
func (h *Handler) List(c *gin.Context) {
	if _, ok := access.FromContext(c); !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	params := pagination.Extract(c)

	filters := ListFilters{}

	if raw := c.Query("course_id"); raw != "" {
		courseID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course_id filter", err)
			return
		}
		filters.CourseID = &courseID
	}

	if raw := c.Query("payment_method"); raw != "" {
		if !types.PaymentMethod(raw).Valid() {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid payment_method filter", nil)
			return
		}
		filters.Method = raw
	}

	dateFrom := c.Query("date_from")
	if dateFrom != "" {
		from, err := request.ParseRFC3339Ptr(&dateFrom)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid date_from filter", err)
			return
		}
		filters.DateFrom = from
	}

	dateTo := c.Query("date_to")
	if dateTo != "" {
		to, err := request.ParseRFC3339Ptr(&dateTo)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid date_to filter", err)
			return
		}
		filters.DateTo = to
	}

	if ordering := c.Query("ordering"); ordering == "date" {
		filters.SortOrder = "asc"
	}

	payments, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list payments", err)
		return
	}

	response.Success(c, http.StatusOK, payments, "", pagination.MetadataFrom(total, params))
}

// Checkout creates a Stripe checkout session for a course and records
// the pending payment.
func (h *Handler) Checkout(c *gin.Context) {
	actor, ok := access.FromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	var req struct {
		CourseID *uuid.UUID `json:"course_id"`
		Amount   float64    `json:"amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid checkout payload", err)
		return
	}

	if req.CourseID == nil || *req.CourseID == uuid.Nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "course_id is required", nil)
		return
	}

	amount := types.NewMoney(req.Amount)
	if !amount.IsPositive() {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	crs, err := course.Get(h.db, *req.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Course not found.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}

	ctx := c.Request.Context()

	product, err := h.stripeClient.CreateProduct(ctx, crs.Title)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadGateway, "failed to create payment product", err)
		return
	}

	price, err := h.stripeClient.CreatePrice(ctx, product.ID, amount.MinorUnits())
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadGateway, "failed to create payment price", err)
		return
	}

	session, err := h.stripeClient.CreateCheckoutSession(ctx, price.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadGateway, "failed to create checkout session", err)
		return
	}

	userID := actor.ID
	pmt, err := Create(h.db, CreateInput{
		UserID:    &userID,
		CourseID:  req.CourseID,
		Amount:    amount,
		Method:    types.PaymentMethodStripe,
		SessionID: &session.ID,
		Link:      &session.URL,
	})
	if err != nil {
		h.respondError(c, err, "failed to record payment")
		return
	}

	response.Created(c, pmt, "Checkout session created.")
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrInvalidAmount):
		status = http.StatusBadRequest
		message = "Payment amount must be positive."
	case errors.Is(err, ErrInvalidMethod):
		status = http.StatusBadRequest
		message = "Unknown payment method."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}

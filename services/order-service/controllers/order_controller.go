package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/udofia2/migrating-to-microservice/services/common/responses"
	"github.com/udofia2/migrating-to-microservice/services/order-service/repository"
	"github.com/udofia2/migrating-to-microservice/services/order-service/services"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CreateOrder handles order creation requests. The response is returned as
// soon as the order is persisted; payment confirmation arrives later through
// the background continuation.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CustomerID == "" || req.ProductID == "" {
		responses.Error(ctx, http.StatusBadRequest, "Missing required fields: customerId, productId, amount")
		return
	}
	if req.Amount <= 0 {
		responses.Error(ctx, http.StatusBadRequest, "Amount must be a positive number")
		return
	}

	order, serviceErr := oc.orderService.CreateOrder(ctx.Request.Context(), &req)
	if serviceErr != nil {
		responses.Error(ctx, serviceErr.StatusCode, serviceErr.Message)
		return
	}

	responses.OK(ctx, http.StatusCreated, "Order created successfully", gin.H{
		"customerId":  order.CustomerID,
		"orderId":     order.OrderID,
		"productId":   order.ProductID,
		"orderStatus": order.Status,
		"amount":      order.Amount,
		"createdAt":   order.CreatedAt,
	})
}

// GetOrder returns a single order by its human-readable id or internal id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, serviceErr := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if serviceErr != nil {
		responses.Error(ctx, serviceErr.StatusCode, serviceErr.Message)
		return
	}

	responses.OK(ctx, http.StatusOK, "", order)
}

// ListOrders returns paginated orders, optionally filtered by customer
// and/or status.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	filter := repository.OrderFilter{
		CustomerID: ctx.Query("customerId"),
		Status:     ctx.Query("orderStatus"),
	}
	page, limit := parsePaginationParams(ctx)

	result, serviceErr := oc.orderService.ListOrders(ctx.Request.Context(), filter, page, limit)
	if serviceErr != nil {
		responses.Error(ctx, serviceErr.StatusCode, serviceErr.Message)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      result.Meta.Count,
		"total":      result.Meta.Total,
		"page":       result.Meta.Page,
		"totalPages": result.Meta.TotalPages,
		"data":       result.Orders,
	})
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 50

	page := ctx.DefaultQuery("page", "1")
	limit := ctx.DefaultQuery("limit", "50")

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		pageInt = p
	}

	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/udofia2/migrating-to-microservice/services/payment-service/controllers"
)

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	payments := r.Group("/payments")
	payments.POST("", pc.ProcessPayment)
	payments.GET("/:paymentId", pc.GetPayment)
}

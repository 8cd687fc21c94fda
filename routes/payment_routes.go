package routes

import (
	"poolride/internal/handlers"
	"poolride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes sets up payment, payout and webhook routes
func SetupPaymentRoutes(r *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, payoutHandler *handlers.PayoutHandler, jwtSecret string) {
	// Public webhook route (signature-verified, no auth)
	r.POST("/webhooks/stripe", payoutHandler.StripeWebhook)

	payments := r.Group("/payments")
	payments.Use(middleware.AuthRequired(jwtSecret))
	{
		payments.POST("/:id/retry", paymentHandler.RetryPayment)
	}

	adminPayments := r.Group("/admin/payments")
	adminPayments.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		adminPayments.POST("/capture", paymentHandler.CapturePayment)
		adminPayments.POST("/refund", paymentHandler.RefundPayment)
		adminPayments.POST("/cancel", paymentHandler.CancelPayment)
	}

	payouts := r.Group("/payouts")
	payouts.Use(middleware.AuthRequired(jwtSecret), middleware.DriverRequired())
	{
		payouts.GET("/earnings", payoutHandler.GetMyEarnings)
		payouts.GET("/", payoutHandler.GetMyPayouts)
	}

	adminPayouts := r.Group("/admin/payouts")
	adminPayouts.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		adminPayouts.POST("/run", payoutHandler.RunPayouts)
	}
}

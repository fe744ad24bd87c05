package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentmart.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	purchaseHandler    *handlers.PurchaseHandler
	autoPaymentHandler *handlers.AutoPaymentHandler
	healthHandler      *handlers.HealthHandler
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/health", d.healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		purchases := api.Group("/purchases")
		{
			purchases.POST("", d.purchaseHandler.CreatePurchase)
			purchases.GET("", d.purchaseHandler.ListPurchases)
		}

		autoPayments := api.Group("/auto-payments")
		{
			autoPayments.POST("", d.autoPaymentHandler.CreateAutoPayment)
			autoPayments.GET("/:id", d.autoPaymentHandler.GetAutoPayment)
		}
	}
}

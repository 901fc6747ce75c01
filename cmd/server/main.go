package main

import (
	"log"
	"net/http"

	"benangmas-be/internal/checkout"
	"benangmas-be/internal/config"
	"benangmas-be/internal/db"
	"benangmas-be/internal/fulfillment"
	"benangmas-be/internal/logger"
	"benangmas-be/internal/mailer"
	"benangmas-be/internal/metrics"
	"benangmas-be/internal/middleware"
	"benangmas-be/internal/ops"
	"benangmas-be/internal/payment"
	"benangmas-be/internal/payment/webhook"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	gateway := payment.NewXenditGateway(cfg.XenditSecretKey, cfg.XenditCallbackToken)
	paymentRepo := payment.NewRepository(database)

	fulfillStore := fulfillment.NewRepository(database)
	mail := mailer.NewSMTPMailer(cfg)
	fulfillSvc := fulfillment.NewService(fulfillStore, mail, cfg.StoreName)

	webhookMetrics := &metrics.WebhookMetrics{}
	webhookHandler := webhook.NewWebhookHandler(fulfillSvc, paymentRepo, gateway, webhookMetrics)

	checkoutRepo := checkout.NewRepository(database)
	checkoutSvc := checkout.NewService(checkoutRepo, paymentRepo, gateway)
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	opsHandler := &ops.Handler{
		Fulfillment: fulfillSvc,
		Payments:    paymentRepo,
		Gateway:     gateway,
		Metrics:     webhookMetrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/payment", webhookHandler.WebhookHandler)
	mux.HandleFunc("POST /api/checkout", checkoutHandler.CreateOrder)
	mux.HandleFunc("POST /api/orders/{order_number}/payments", checkoutHandler.RetryPayment)

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.AdminOnly(cfg.AdminSecretKey, h)
	}
	mux.Handle("POST /ops/payments/{reference}/refulfill", admin(opsHandler.Refulfill))
	mux.Handle("POST /ops/payments/{reference}/cancel", admin(opsHandler.Cancel))
	mux.Handle("GET /ops/payments/{reference}", admin(opsHandler.GetPayment))
	mux.Handle("GET /ops/metrics", admin(opsHandler.WebhookMetrics))

	handler := middleware.RateLimitMiddleware(middleware.LoggingMiddleware(mux))

	log.Printf("🚀 Server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, handler))
}

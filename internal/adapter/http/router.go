package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/re-trade/checkout-api/internal/adapter/http/middleware"
	"github.com/re-trade/checkout-api/internal/logging"
)

func NewRouter(ch *CheckoutHandler, rh *RegistrationHandler, ph *PaymentHandler,
	th *TokenHandler, authz *middleware.Authz, verifier middleware.Verifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())
	r.Use(middleware.Logging(logging.New("http")))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// gateway-facing; authenticated by signature, not by JWT
	r.POST("/v1/payments/callback", middleware.CallbackVerify(verifier), ph.Callback)

	v1 := r.Group("/v1")
	{
		v1.GET("/payment-methods", authz.Require("checkout.read"), ph.ListMethods)

		v1.POST("/checkouts", authz.Require("checkout.write"), ch.Checkout)
		v1.GET("/checkouts/:id", authz.Require("checkout.read"), ch.GetAttempt)
		v1.POST("/checkouts/:id/retry-payment", authz.Require("checkout.write"), ch.RetryPayment)
		v1.POST("/checkouts/:id/reset", authz.Require("checkout.write"), ch.ForceReset)
		v1.POST("/buy-now", authz.Require("checkout.write"), ch.BuyNow)

		v1.POST("/sellers/register", authz.Require("seller.register"), rh.Register)
	}

	return r
}

package router

import (
	"log"
	"net/http"

	"pesabridge/config"
	"pesabridge/internal/handler"
	"pesabridge/internal/middleware"
	"pesabridge/pkg/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func Setup(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.Default())

	var provider payment.Provider
	if cfg.Mpesa.Mock {
		log.Printf("[MPESA] mock mode: no requests will reach the gateway")
		provider = payment.NewMockProvider()
	} else {
		provider = payment.NewDarajaProvider(
			cfg.Mpesa.BaseURL,
			cfg.Mpesa.ConsumerKey,
			cfg.Mpesa.ConsumerSecret,
			cfg.Mpesa.ShortCode,
			cfg.Mpesa.Passkey,
			cfg.Mpesa.CallbackURL,
			cfg.Mpesa.AccountReference,
		)
	}

	mpesaHandler := handler.NewMpesaHandler(provider)
	callbackHandler := handler.NewCallbackHandler()

	api := r.Group("/api")
	{
		api.POST("/pay", mpesaHandler.Pay)
		api.GET("/token", mpesaHandler.Token)
		api.POST("/stkquery", mpesaHandler.QueryStatus)
	}

	r.POST("/mpesa/callback", callbackHandler.Handle)
	r.POST("/simulate-callback", callbackHandler.Simulate)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Mpesa  MpesaConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MpesaConfig holds the Daraja (Lipa na M-Pesa Online) credentials and
// endpoints. Mock short-circuits every outbound call for local development.
type MpesaConfig struct {
	Env              string // sandbox or production
	BaseURL          string
	ConsumerKey      string
	ConsumerSecret   string
	ShortCode        string
	Passkey          string
	CallbackURL      string
	AccountReference string
	Mock             bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	mpesaEnv := getEnv("MPESA_ENV", "sandbox")
	baseURL := "https://sandbox.safaricom.co.ke"
	if mpesaEnv == "production" {
		baseURL = "https://api.safaricom.co.ke"
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Mpesa: MpesaConfig{
			Env:              mpesaEnv,
			BaseURL:          getEnv("MPESA_BASE_URL", baseURL),
			ConsumerKey:      os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:   os.Getenv("MPESA_CONSUMER_SECRET"),
			ShortCode:        getEnv("MPESA_SHORTCODE", "174379"),
			Passkey:          os.Getenv("MPESA_PASSKEY"),
			CallbackURL:      os.Getenv("MPESA_CALLBACK_URL"),
			AccountReference: getEnv("MPESA_ACCOUNT_REFERENCE", "PesaBridge"),
			Mock:             os.Getenv("MPESA_MOCK") == "true",
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

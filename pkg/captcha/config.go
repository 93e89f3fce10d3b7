package captcha

import "time"

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type Config struct {
	SiteKey   string        `env:"RECAPTCHA_SITE_KEY"`
	SecretKey string        `env:"RECAPTCHA_SECRET_KEY"`
	MinScore  float64       `env:"RECAPTCHA_MIN_SCORE" envDefault:"0.5"`
	VerifyURL string        `env:"RECAPTCHA_VERIFY_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	Timeout   time.Duration `env:"RECAPTCHA_TIMEOUT" envDefault:"10s"`
}

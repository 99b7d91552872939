package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Redis       Redis `envPrefix:"REDIS_"`
	BaseURL     string `env:"BASE_URL"`

	// PaymentProvider selects the processor used for setup checkouts and charges.
	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"paypal"`

	Paypal      Paypal      `envPrefix:"PAYPAL_"`
	BrainTree   Braintree   `envPrefix:"BRAINTREE_"`
	Identity    Identity    `envPrefix:"IDENTITY_"`
	Attribution Attribution `envPrefix:"ATTRIBUTION_"`
	Charge      Charge      `envPrefix:"CHARGE_"`
	Auth        Auth        `envPrefix:"AUTH_"`
	RateLimit   RateLimit   `envPrefix:"RATE_LIMIT_"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"mysql"` // mysql | sqlite
	URL    string `env:"DATABASE_URL" envDefault:"funnel.db"`
}

// Redis caches resolved identities per buyer session. Empty Addr keeps the
// cache in process memory.
type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"2h"`
}

// Identity configures the bounded retry used while waiting for the processor
// webhook to deliver a buyer's member id.
type Identity struct {
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"10"`
	InitialDelay time.Duration `env:"INITIAL_DELAY" envDefault:"2s"`
	RetryDelay   time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
}

type Attribution struct {
	Window time.Duration `env:"WINDOW" envDefault:"30m"`
}

type Charge struct {
	// DedupPerSession skips re-charging an offer already bought in the same session.
	DedupPerSession bool `env:"DEDUP_PER_SESSION" envDefault:"false"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type RateLimit struct {
	RPS float64 `env:"RPS" envDefault:"20"`
}

package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	Checkout struct {
		ProcessingDelay time.Duration `koanf:"processing_delay"`
		RedirectTimeout time.Duration `koanf:"redirect_timeout"`
		ProcessTimeout  time.Duration `koanf:"process_timeout"`
		AttemptTTL      time.Duration `koanf:"attempt_ttl"`
	} `koanf:"checkout"`

	Backend struct {
		OrderBaseURL    string        `koanf:"order_base_url"`
		PaymentBaseURL  string        `koanf:"payment_base_url"`
		SellerBaseURL   string        `koanf:"seller_base_url"`
		MediaBaseURL    string        `koanf:"media_base_url"`
		LocationBaseURL string        `koanf:"location_base_url"`
		CallTimeout     time.Duration `koanf:"call_timeout"`
	} `koanf:"backend"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Rabbit struct {
		URL           string `koanf:"url"`
		Exchange      string `koanf:"exchange"`
		CallbackQueue string `koanf:"callback_queue"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		GroupID     string   `koanf:"group_id"`
		TopicOrders string   `koanf:"topic_orders"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Crypto struct {
		KeyID     string `koanf:"key_id"`
		RSAPubPEM string `koanf:"rsa_pub_pem"`
	} `koanf:"crypto"`
}

// Load reads base.yaml, overlays <envName>.yaml when present, then overlays
// environment variables (prefix CHECKOUTAPI_, nested with __).
// e.g. CHECKOUTAPI_MYSQL__DSN, CHECKOUTAPI_BACKEND__ORDER_BASE_URL
func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	if err := k.Load(env.Provider("CHECKOUTAPI_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CHECKOUTAPI_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Backend.OrderBaseURL == "" || c.Backend.PaymentBaseURL == "" {
		return fmt.Errorf("backend.order_base_url and backend.payment_base_url required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if c.Crypto.RSAPubPEM == "" {
		return fmt.Errorf("crypto.rsa_pub_pem required (payment callback verification)")
	}
	return nil
}

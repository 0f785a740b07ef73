package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

type consumers struct {
	PaymentHistoryGroup string `mapstructure:"payment_history_group"`
}

type topics struct {
	CartNotices string `mapstructure:"cart_notices"`
	Payments    string `mapstructure:"payments"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	Enabled            bool      `mapstructure:"enabled"`
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type payment struct {
	SuccessRate float64       `mapstructure:"success_rate"`
	Delay       time.Duration `mapstructure:"delay"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	SQLDB          string        `mapstructure:"sql_db"`
	UploadsDir     string        `mapstructure:"uploads_dir"`
	CartKey        string        `mapstructure:"cart_key"`
	CartIdleTTL    time.Duration `mapstructure:"cart_idle_ttl"`
	CartMaxCarts   int           `mapstructure:"cart_max_carts"`
	SessionHeader  string        `mapstructure:"session_header"`
	Redis          redis         `mapstructure:"redis"`
	Payment        payment       `mapstructure:"payment"`
	Broker         broker        `mapstructure:"broker"`
}

// TLSEnabled reports whether the broker certificates are set.
func (c Config) TLSEnabled() bool {
	t := c.Broker.TLS
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the config file, fills the optional
// settings with defaults and validates the result.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("cart_key", "cart")
	v.SetDefault("cart_idle_ttl", "30m")
	v.SetDefault("cart_max_carts", 10000)
	v.SetDefault("session_header", "X-Session-ID")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("payment.success_rate", 0.8)
	v.SetDefault("payment.delay", "2s")
	v.SetDefault("broker.enabled", false)
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.topics.cart_notices", "cart-notices")
	v.SetDefault("broker.topics.payments", "payments")
	v.SetDefault("broker.consumers.payment_history_group", "payment-history")
}

func (c Config) validate() error {
	var errs []error
	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db is required"))
	}
	if c.CartKey == "" {
		errs = append(errs, errors.New("cart_key is required"))
	}
	if c.CartIdleTTL <= 0 {
		errs = append(errs, errors.New("cart_idle_ttl must be > 0"))
	}
	if c.CartMaxCarts < 1 {
		errs = append(errs, errors.New("cart_max_carts must be > 0"))
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		errs = append(errs, errors.New("payment.success_rate must be between 0 and 1"))
	}
	if c.Payment.Delay < 0 {
		errs = append(errs, errors.New("payment.delay must be >= 0"))
	}
	if c.Broker.Enabled {
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers is required"))
		}
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls is required"))
		}
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q
	UploadsDir=%q
	CartKey=%q
	CartIdleTTL=%s
	CartMaxCarts=%d
	SessionHeader=%q

	Redis:
	Enabled=%t
	Addr=%q
	Password=%q
	DB=%d

	Payment:
	SuccessRate=%.2f
	Delay=%s

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		CartNotices=%q
		Payments=%q
	Consumers:
		PaymentHistoryGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		mask(c.SQLDB),
		c.UploadsDir,
		c.CartKey,
		c.CartIdleTTL,
		c.CartMaxCarts,
		c.SessionHeader,
		c.Redis.Enabled,
		c.Redis.Addr,
		mask(c.Redis.Password),
		c.Redis.DB,
		c.Payment.SuccessRate,
		c.Payment.Delay,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.TLSEnabled(),
		c.Broker.Topics.CartNotices,
		c.Broker.Topics.Payments,
		c.Broker.Consumers.PaymentHistoryGroup,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

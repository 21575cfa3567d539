package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/parlakisik/event-escrow/internal/model"
	"github.com/parlakisik/event-escrow/internal/service"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Persistence
	StoreType          string `envconfig:"STORE_TYPE" default:"memory"`
	MongoURI           string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB            string `envconfig:"MONGO_DB" default:"event_escrow"`
	FirestoreProjectID string `envconfig:"FIRESTORE_PROJECT_ID"`
	FirestorePrefix    string `envconfig:"FIRESTORE_COLLECTION_PREFIX" default:"escrow_"`
	VendorSeedFile     string `envconfig:"VENDOR_SEED_FILE"`

	// Business rules
	CheckInRadiusMeters float64       `envconfig:"CHECKIN_RADIUS_METERS" default:"500"`
	PlatformFeeRate     string        `envconfig:"PLATFORM_FEE_RATE" default:"0.02"`
	MobilizationRate    string        `envconfig:"MOBILIZATION_RATE" default:"0.20"`
	SplitRate           string        `envconfig:"SPLIT_RATE" default:"0.50"`
	PaddingThreshold    string        `envconfig:"PADDING_THRESHOLD" default:"1.5"`
	DisputeReasonMinLen int           `envconfig:"DISPUTE_REASON_MIN_LEN" default:"10"`
	AppealMinLen        int           `envconfig:"APPEAL_MIN_LEN" default:"10"`
	CallTimeout         time.Duration `envconfig:"CALL_TIMEOUT" default:"10s"`
	SimulatedLatency    time.Duration `envconfig:"SIMULATED_LATENCY" default:"0s"`

	// Collaborators
	VendorDirectoryURL  string        `envconfig:"VENDOR_DIRECTORY_URL"`
	ChatServiceURL      string        `envconfig:"CHAT_SERVICE_URL"`
	CollaboratorToken   string        `envconfig:"COLLABORATOR_TOKEN"`
	CollaboratorTimeout time.Duration `envconfig:"COLLABORATOR_TIMEOUT" default:"5s"`
	NotifyWebhookURL    string        `envconfig:"NOTIFY_WEBHOOK_URL"`
	AMQPURL             string        `envconfig:"AMQP_URL"`
	AMQPExchange        string        `envconfig:"AMQP_EXCHANGE" default:"escrow.events"`

	// HTTP
	APIKeys            APIKeys `envconfig:"API_KEYS"`
	RateLimitPerMinute int     `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`
	LogLevel           string  `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreType {
	case "memory", "mongo":
	case "firestore":
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT_ID is required when STORE_TYPE=firestore")
		}
	default:
		return fmt.Errorf("config: unknown STORE_TYPE %q", c.StoreType)
	}
	if c.Environment == "production" && c.StoreType == "memory" {
		return fmt.Errorf("config: production requires a persistent STORE_TYPE")
	}
	if c.CheckInRadiusMeters <= 0 {
		return fmt.Errorf("config: CHECKIN_RADIUS_METERS must be positive")
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	return nil
}

// Settings converts the business-rule keys into service settings.
func (c *Config) Settings() (service.Settings, error) {
	s := service.DefaultSettings()
	s.CheckInRadiusMeters = c.CheckInRadiusMeters
	s.DisputeReasonMinLen = c.DisputeReasonMinLen
	s.AppealMinLen = c.AppealMinLen
	s.CallTimeout = c.CallTimeout
	s.SimulatedLatency = c.SimulatedLatency

	rates := []struct {
		key string
		raw string
		dst *decimal.Decimal
	}{
		{"PLATFORM_FEE_RATE", c.PlatformFeeRate, &s.PlatformFeeRate},
		{"MOBILIZATION_RATE", c.MobilizationRate, &s.MobilizationRate},
		{"SPLIT_RATE", c.SplitRate, &s.SplitRate},
		{"PADDING_THRESHOLD", c.PaddingThreshold, &s.PaddingThreshold},
	}
	for _, r := range rates {
		d, err := decimal.NewFromString(r.raw)
		if err != nil {
			return service.Settings{}, fmt.Errorf("config: %s: %w", r.key, err)
		}
		if d.IsNegative() {
			return service.Settings{}, fmt.Errorf("config: %s must not be negative", r.key)
		}
		*r.dst = d
	}
	return s, nil
}

// APIKeys maps API keys to actors. The environment form is a comma
// separated list of key=role:id[:verified].
type APIKeys map[string]model.Actor

func (k *APIKeys) Decode(value string) error {
	out := make(APIKeys)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, ident, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return fmt.Errorf("api key entry %q: want key=role:id", entry)
		}
		parts := strings.Split(ident, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
			return fmt.Errorf("api key entry %q: want key=role:id[:verified]", entry)
		}

		actor := model.Actor{Role: model.Role(parts[0]), ID: parts[1]}
		switch actor.Role {
		case model.RoleClient, model.RoleVendor, model.RoleAgent, model.RoleAdmin:
		default:
			return fmt.Errorf("api key entry %q: unknown role %q", entry, parts[0])
		}
		if len(parts) == 3 {
			if parts[2] != "verified" {
				return fmt.Errorf("api key entry %q: unknown flag %q", entry, parts[2])
			}
			actor.Verified = true
		}
		out[key] = actor
	}
	*k = out
	return nil
}

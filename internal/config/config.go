package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Model providers accepted by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"

	// DefaultOpenAIBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// Default directive fragments. Each one is overridable through the environment.
const (
	DefaultPersona    = "Eres FinAI, un Asesor Financiero útil y amable. Ayudás al usuario con sus dudas de finanzas personales."
	DefaultRegister   = "Respondé en español rioplatense, con un tono cercano y sin tecnicismos innecesarios."
	DefaultVerbosity  = "Respondé de manera concisa y clara: como máximo tres párrafos cortos."
	DefaultDisclosure = "No menciones, recomiendes ni ofrezcas planes, cursos o servicios pagos, propios o de terceros."
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	AllowedOrigins  []string
	JWTSecret       string
	TokenExpiration time.Duration
	// ProfileEncryptionKey seals stored checklist payloads when set (32 bytes, AES-256).
	ProfileEncryptionKey []byte

	Store   StoreConfig
	LLM     LLMConfig
	Advisor AdvisorConfig
	Chat    ChatConfig
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// LLMConfig describes the model provider. APIKey is resolved once at startup from
// LLM_API_KEY, GOOGLE_GENERATIVE_AI_API_KEY or GOOGLE_API_KEY, in that order.
type LLMConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Region      string
	AccessKey   string
	SecretKey   string
	MaxTokens   *int
	Temperature *float32
}

// Enabled reports whether enough credentials are present to build a chat model.
func (c LLMConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderArk {
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	}
	return c.APIKey != ""
}

// AdvisorConfig carries the four options the system directive is composed from.
type AdvisorConfig struct {
	Persona    string
	Register   string
	Verbosity  string
	Disclosure string
}

// ChatConfig bounds the streaming pipeline.
type ChatConfig struct {
	GenerationTimeout   time.Duration
	PersistTimeout      time.Duration
	SessionMaxIdle      time.Duration // 0 keeps resuming the latest session forever
	DefaultSessionTitle string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	cfg, err := loadFromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded config: Port=%s, Store=%s, LLM=%s/%s (enabled=%t), TokenExp=%s, ProfileSealing=%t",
		cfg.HTTPPort, cfg.Store.Driver, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Enabled(),
		cfg.TokenExpiration, cfg.ProfileEncryptionKey != nil)
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

// loadFromEnv builds and validates a Config from lookup.
func loadFromEnv(lookup lookupFunc) (*Config, error) {
	env := envReader{lookup: lookup}

	cfg := &Config{
		HTTPPort:       env.get("HTTP_PORT", "8080"),
		AllowedOrigins: splitList(env.get("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:      env.get("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		Store: StoreConfig{
			Driver:      strings.ToLower(env.get("DB_DRIVER", DriverPostgres)),
			DatabaseURL: env.get("DATABASE_URL", ""),
			SQLitePath:  env.get("SQLITE_PATH", "finai.db"),
		},
		LLM: LLMConfig{
			Provider:  strings.ToLower(env.get("LLM_PROVIDER", ProviderOpenAI)),
			BaseURL:   env.get("LLM_BASE_URL", DefaultOpenAIBaseURL),
			Model:     env.get("LLM_MODEL", "gemini-2.5-flash"),
			APIKey:    resolveAPIKey(lookup),
			Region:    env.get("ARK_REGION", "cn-beijing"),
			AccessKey: env.secret("ARK_ACCESS_KEY"),
			SecretKey: env.secret("ARK_SECRET_KEY"),
		},
		Advisor: AdvisorConfig{
			Persona:    env.get("ADVISOR_PERSONA", DefaultPersona),
			Register:   env.get("ADVISOR_REGISTER", DefaultRegister),
			Verbosity:  env.get("ADVISOR_VERBOSITY", DefaultVerbosity),
			Disclosure: env.get("ADVISOR_DISCLOSURE", DefaultDisclosure),
		},
		Chat: ChatConfig{
			DefaultSessionTitle: env.get("CHAT_DEFAULT_SESSION_TITLE", "Nueva Conversación"),
		},
	}

	tokenExpStr := env.get("JWT_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}
	cfg.TokenExpiration = time.Hour * time.Duration(tokenExpHours)

	if cfg.Chat.GenerationTimeout, err = env.duration("CHAT_GENERATION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Chat.PersistTimeout, err = env.duration("CHAT_PERSIST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Chat.SessionMaxIdle, err = env.duration("CHAT_SESSION_MAX_IDLE", 0); err != nil {
		return nil, err
	}

	if cfg.LLM.MaxTokens, err = env.optionalInt("LLM_MAX_TOKENS"); err != nil {
		return nil, err
	}
	if cfg.LLM.Temperature, err = env.optionalFloat32("LLM_TEMPERATURE"); err != nil {
		return nil, err
	}

	// Load and decode the optional profile key (64 hex characters for 32 bytes)
	if keyHex := env.secret("PROFILE_ENCRYPTION_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode PROFILE_ENCRYPTION_KEY from hex: %w", err)
		}
		cfg.ProfileEncryptionKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Store.Driver))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.ProfileEncryptionKey != nil && len(c.ProfileEncryptionKey) != 32 {
		errs = append(errs, fmt.Errorf("PROFILE_ENCRYPTION_KEY must be 32 bytes (64 hex characters) long, got %d bytes", len(c.ProfileEncryptionKey)))
	}
	if c.Chat.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("CHAT_GENERATION_TIMEOUT must be positive"))
	}
	if c.Chat.PersistTimeout <= 0 {
		errs = append(errs, errors.New("CHAT_PERSIST_TIMEOUT must be positive"))
	}
	if c.Chat.SessionMaxIdle < 0 {
		errs = append(errs, errors.New("CHAT_SESSION_MAX_IDLE must not be negative"))
	}
	return errors.Join(errs...)
}

// resolveAPIKey picks the single model credential. Later names are legacy aliases.
func resolveAPIKey(lookup lookupFunc) string {
	for _, key := range []string{"LLM_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY", "GOOGLE_API_KEY"} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type envReader struct {
	lookup lookupFunc
}

// get retrieves an environment variable or returns a default value.
func (e envReader) get(key, fallback string) string {
	if value, exists := e.lookup(key); exists {
		return strings.TrimSpace(value)
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// secret is get without logging the value.
func (e envReader) secret(key string) string {
	value, _ := e.lookup(key)
	return strings.TrimSpace(value)
}

func (e envReader) duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := e.secret(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}

func (e envReader) optionalInt(key string) (*int, error) {
	raw := e.secret(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return &v, nil
}

func (e envReader) optionalFloat32(key string) (*float32, error) {
	raw := e.secret(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	f := float32(v)
	return &f, nil
}

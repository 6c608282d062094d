package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/guillermop/sellerauth/internal/logger"
	"github.com/guillermop/sellerauth/internal/service/lwa"
	"github.com/guillermop/sellerauth/internal/service/oauth"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultAllowedOrigin = "https://guillermos-amazing-site-b0c75a.webflow.io"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the broker will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// LWA application credentials and the redirect URI registered for the app
	LWAAppID        string
	LWAClientSecret string
	RedirectURI     string

	// Secret to sign the session cookie
	SessionSecret string

	// Front-end origin allowed by CORS
	AllowedOrigin string

	// Provider endpoints, overridable for testing against stubs
	AuthEndpoint  string
	TokenEndpoint string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		AllowedOrigin: defaultAllowedOrigin,
		AuthEndpoint:  oauth.DefaultAuthURL,
		TokenEndpoint: lwa.DefaultTokenURL,
		Environment:   defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":       setString(&c.ListenAddr),
		"DATABASE_URL":      setString(&c.DatabaseDSN),
		"LWA_APP_ID":        setString(&c.LWAAppID),
		"LWA_CLIENT_SECRET": setString(&c.LWAClientSecret),
		"REDIRECT_URI":      setString(&c.RedirectURI),
		"SESSION_SECRET":    setString(&c.SessionSecret),
		"ALLOWED_ORIGIN":    setString(&c.AllowedOrigin),
		"AUTH_ENDPOINT":     setString(&c.AuthEndpoint),
		"TOKEN_ENDPOINT":    setString(&c.TokenEndpoint),
		"LOG_LEVEL":         setString(&c.LogLevel),
		"ENVIRONMENT":       setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("sellerauth", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.LWAAppID, "app-id", c.LWAAppID, "LWA application id")
	fs.StringVar(&c.LWAClientSecret, "client-secret", c.LWAClientSecret, "LWA client secret")
	fs.StringVar(&c.RedirectURI, "redirect-uri", c.RedirectURI, "OAuth redirect URI")
	fs.StringVarP(&c.SessionSecret, "session-secret", "s", c.SessionSecret, "Secret to sign session cookies")
	fs.StringVar(&c.AllowedOrigin, "origin", c.AllowedOrigin, "Allowed CORS origin")
	fs.StringVar(&c.AuthEndpoint, "auth-endpoint", c.AuthEndpoint, "Authorization consent endpoint")
	fs.StringVar(&c.TokenEndpoint, "token-endpoint", c.TokenEndpoint, "Token endpoint")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks required secrets are present
// The process must refuse to start without them
func (c *Config) Validate() error {
	if c.LWAAppID == "" || c.LWAClientSecret == "" || c.RedirectURI == "" {
		return errors.New("Amazon SP-API credentials are missing. Check your environment variables")
	}

	if c.DatabaseDSN == "" {
		return errors.New("Database URL is missing. Ensure DATABASE_URL is set in your environment variables")
	}

	if c.SessionSecret == "" {
		return errors.New("Session secret is missing. Ensure SESSION_SECRET is set in your environment variables")
	}

	return nil
}

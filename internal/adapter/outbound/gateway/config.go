package gateway

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/botmarket/server/internal/utils/metrics"
)

const (
	defaultCurrency     = "BRL"
	defaultProbePath    = "/"
	defaultProbeTimeout = 5 * time.Second
)

// Config holds the settings of one gateway client.
type Config struct {
	BaseURL string

	// Token is a static bearer token. When TokenURL is set the token is
	// obtained with the OAuth2 client-credentials flow instead.
	Token        string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	Currency        string
	SuccessURL      string
	CancelURL       string
	NotificationURL string

	ProbePath    string
	ProbeTimeout time.Duration

	Breaker BreakerConfig

	// UseStripe switches the card processor to the Stripe Checkout dialect.
	UseStripe bool

	LocalReferencePrefix string
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold uint32
	Interval         time.Duration
	Timeout          time.Duration
}

// Deps are the shared collaborators of every gateway client.
type Deps struct {
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.ProbePath == "" {
		c.ProbePath = defaultProbePath
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	return c
}

// tokenSource builds the bearer token source for a gateway, or nil when
// no credential is configured.
func tokenSource(cfg Config, httpClient *http.Client) oauth2.TokenSource {
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		return cc.TokenSource(ctx)
	}
	return staticToken(cfg.Token)
}

func staticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

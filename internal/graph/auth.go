package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/teemow/formintake/internal/instrumentation"
)

// DefaultScope requests every application permission granted to the app registration.
const DefaultScope = "https://graph.microsoft.com/.default"

// Credentials identify an Entra ID app registration.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Validate checks that all fields are set.
func (c Credentials) Validate() error {
	switch {
	case c.TenantID == "":
		return fmt.Errorf("tenant ID is required")
	case c.ClientID == "":
		return fmt.Errorf("client ID is required")
	case c.ClientSecret == "":
		return fmt.Errorf("client secret is required")
	}
	return nil
}

// tokenConfig returns the client-credentials configuration for the tenant.
// authorityURL overrides https://login.microsoftonline.com.
func tokenConfig(creds Credentials, authorityURL, scope string) *clientcredentials.Config {
	tokenURL := microsoft.AzureADEndpoint(creds.TenantID).TokenURL
	if authorityURL != "" {
		tokenURL = strings.TrimRight(authorityURL, "/") + "/" + url.PathEscape(creds.TenantID) + "/oauth2/v2.0/token"
	}
	if scope == "" {
		scope = DefaultScope
	}

	return &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
}

// fetchToken performs the client-credentials exchange. Any non-2xx answer
// from the token endpoint is returned as an *AuthError.
func fetchToken(ctx context.Context, conf *clientcredentials.Config, tenantID string, base *http.Client, metrics *instrumentation.Metrics) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	ctx, span := instrumentation.StartGraphSpan(ctx, instrumentation.OperationToken)
	defer span.End()

	start := time.Now()
	tok, err := conf.Token(ctx)
	if err != nil {
		metrics.RecordTokenRequest(ctx, instrumentation.TokenResultFailure)
		metrics.RecordGraphOperation(ctx, instrumentation.OperationToken, instrumentation.StatusError, time.Since(start))
		authErr := newAuthError(tenantID, err)
		instrumentation.SetSpanError(span, authErr)
		return nil, authErr
	}

	metrics.RecordTokenRequest(ctx, instrumentation.TokenResultSuccess)
	metrics.RecordGraphOperation(ctx, instrumentation.OperationToken, instrumentation.StatusSuccess, time.Since(start))
	instrumentation.SetSpanSuccess(span)
	return tok, nil
}

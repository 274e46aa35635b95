package services

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	ServiceNameHeader   = "WM_SVC.NAME"
	ServiceName         = "Walmart Marketplace"
	CorrelationIDHeader = "WM_QOS.CORRELATION_ID"
	AccessTokenHeader   = "WM_SEC.ACCESS_TOKEN"
)

type AuthEngine interface {
	SetApiKey(request *http.Request) error
}

// TokenAuth signs requests with a cached client-credentials access token.
// It is safe for concurrent use. Callers waiting for a token fetch give up
// when their own request context ends.
type TokenAuth struct {
	source *tokenSource

	// sem guards token; a send acquires it.
	sem   chan struct{}
	token *oauth2.Token
}

func NewTokenAuth(apiURL, clientID, clientSecret string, client *http.Client) *TokenAuth {
	return &TokenAuth{
		source: newTokenSource(apiURL, clientID, clientSecret, client),
		sem:    make(chan struct{}, 1),
	}
}

func (a *TokenAuth) SetApiKey(request *http.Request) error {
	token, err := a.Token(request.Context())
	if err != nil {
		return err
	}
	request.Header.Set(AccessTokenHeader, token.AccessToken)
	return nil
}

// Token returns the cached token, fetching a new one once it has expired.
func (a *TokenAuth) Token(ctx context.Context) (*oauth2.Token, error) {
	select {
	case a.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.sem }()

	if a.token.Valid() {
		return a.token, nil
	}
	token, err := a.source.Token(ctx)
	if err != nil {
		return nil, err
	}
	a.token = token
	return token, nil
}

package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"gowalmart_seller/internal/walmart/business/models/dto/response"
)

const tokenEndpoint = "token"

// tokenSource exchanges the client id and secret for an access token.
// Expiry is measured from the moment the request was sent.
type tokenSource struct {
	tokenURL  string
	basicAuth string
	client    *http.Client
	now       func() time.Time
}

func newTokenSource(apiURL, clientID, clientSecret string, client *http.Client) *tokenSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &tokenSource{
		tokenURL:  strings.TrimSuffix(apiURL, "/") + "/" + tokenEndpoint,
		basicAuth: base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret)),
		client:    client,
		now:       time.Now,
	}
}

func (ts *tokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := ts.generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("error while generating access token: %w", err)
	}
	return token, nil
}

func (ts *tokenSource) generate(ctx context.Context) (*oauth2.Token, error) {
	issuedAt := ts.now()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+ts.basicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(ServiceNameHeader, ServiceName)
	req.Header.Set(CorrelationIDHeader, uuid.NewString())

	resp, err := ts.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp, body)
	}

	var tokenResponse response.Token
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}

	return &oauth2.Token{
		AccessToken: tokenResponse.AccessToken,
		TokenType:   tokenResponse.TokenType,
		Expiry:      issuedAt.Add(time.Duration(tokenResponse.ExpiresIn) * time.Second),
	}, nil
}

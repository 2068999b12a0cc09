package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"quiz-client/internal/apperr"
)

const loginPath = "/auth/login"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Provider exchanges credentials for an identity token.
type Provider struct {
	client *req.Client
}

func NewProvider(baseURL string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := req.C().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)
	return &Provider{client: client}
}

func ValidateCredentials(email, password string) error {
	problems := &apperr.ValidationError{}
	if strings.TrimSpace(email) == "" {
		problems.Add("email", "is required")
	} else if !strings.Contains(email, "@") {
		problems.Add("email", "must be an email address")
	}
	if password == "" {
		problems.Add("password", "is required")
	}
	return problems.Err()
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if err := ValidateCredentials(email, password); err != nil {
		return Identity{}, err
	}

	var out loginResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Password: password}).
		SetSuccessResult(&out).
		Post(loginPath)
	if err != nil {
		if resp == nil || resp.Response == nil {
			return Identity{}, errors.Wrap(apperr.ErrNetwork, err.Error())
		}
		return Identity{}, errors.Wrap(err, "sign in failed")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, errors.Wrap(apperr.ErrAuth, "invalid email or password")
	case resp.IsErrorState():
		return Identity{}, errors.Errorf("sign in failed with status %d: %s", resp.StatusCode, strings.TrimSpace(resp.String()))
	}

	if out.Token == "" {
		return Identity{}, errors.New("sign in response carried no token")
	}
	return ParseIdentity(out.Token)
}

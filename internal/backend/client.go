package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"quiz-client/internal/apperr"
)

// APIError is a non-2xx answer that maps to none of the apperr kinds.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var body io.Reader
	contentType := ""
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, responseBody)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, responseBody any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to build %s %s", method, path)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(apperr.ErrNetwork, err.Error())
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return decodeError(response)
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response", method, path)
	}
	return nil
}

func decodeError(response *http.Response) error {
	var payload errorResponse
	_ = json.NewDecoder(response.Body).Decode(&payload)
	message := strings.TrimSpace(payload.Error)

	switch response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = response.Status
		}
		return errors.Wrap(apperr.ErrAuth, message)
	case http.StatusNotFound:
		if message == "" {
			message = response.Status
		}
		return errors.Wrap(apperr.ErrNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		problems := &apperr.ValidationError{}
		for _, field := range payload.Fields {
			problems.Add(field.Field, field.Message)
		}
		if len(payload.Fields) == 0 {
			if message == "" {
				message = response.Status
			}
			problems.Add("request", message)
		}
		return problems
	}

	apiErr := &APIError{StatusCode: response.StatusCode, Message: message}
	if apiErr.Message == "" {
		apiErr.Message = response.Status
	}
	return apiErr
}

func joinPath(segments ...string) string {
	var b strings.Builder
	for _, segment := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(segment))
	}
	return b.String()
}

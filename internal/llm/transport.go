package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/observability"
)

const snippetLength = 100

// networkFailure classifies failures where no HTTP status was received.
var networkFailure = domain.StatusDescriptor{
	Kind:    domain.StatusKindUpstream,
	Message: "network error (provider unreachable)",
}

// NewHTTPClient creates an HTTP client with the given per-request timeout,
// optionally routed through an http, https or socks5 proxy.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, domain.ConfigurationError("invalid proxy url", err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
		return &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyURL(parsedURL),
			},
		}, nil

	case "socks5", "socks5h":
		var auth *proxy.Auth
		if parsedURL.User != nil {
			auth = &proxy.Auth{User: parsedURL.User.Username()}
			if password, ok := parsedURL.User.Password(); ok {
				auth.Password = password
			}
		}

		dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
		if err != nil {
			return nil, domain.ConfigurationError("create socks5 dialer", err)
		}

		transport := &http.Transport{}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return &http.Client{Timeout: timeout, Transport: transport}, nil

	default:
		return nil, domain.ConfigurationError(fmt.Sprintf("unsupported proxy scheme: %s", parsedURL.Scheme), nil)
	}
}

type dispatchRequest struct {
	method  string
	url     string
	body    []byte
	headers map[string]string
}

// httpResponse is a fully read 2xx response. Body always holds valid JSON.
type httpResponse struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// dispatch performs one HTTP exchange. The body is read as text first and
// only then parsed, so non-JSON error pages still produce a classified
// error carrying a snippet of the raw text. dispatch never retries.
func (c *Client) dispatch(ctx context.Context, req dispatchRequest) (*httpResponse, error) {
	logger := c.logger.WithContext(ctx)
	start := time.Now()

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, domain.ConfigurationError("build request", err)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	logger.Debug().
		Str("method", req.method).
		Str("url", observability.RedactURL(req.url)).
		Int("request_bytes", len(req.body)).
		Msg("Dispatching request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.method, observability.RedactURL(req.url), ctxErr)
		}
		de := domain.TransportError(networkFailure, "")
		de.Err = redactURLError(err)
		return nil, de
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		de := domain.TransportError(networkFailure, "reading response body")
		de.Err = err
		return nil, de
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("response_bytes", len(raw)).
		Dur("duration", time.Since(start)).
		Msg("Response received")

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		text = "{}"
	}

	desc := MapStatus(resp.StatusCode, statusText(resp))

	if !json.Valid([]byte(text)) {
		return nil, domain.TransportError(desc, "Response start: "+snippet(text)+"...")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorEnvelope
		detail := "None"
		if err := json.Unmarshal([]byte(text), &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
			detail = envelope.Error.Message
		}
		logger.Warn().Int("status", resp.StatusCode).Str("classification", string(desc.Kind)).Msg(desc.Message)
		return nil, domain.TransportError(desc, detail)
	}

	return &httpResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   json.RawMessage(text),
	}, nil
}

// postJSON marshals payload and dispatches it as a JSON POST.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, headers map[string]string) (*httpResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.ValidationError("marshal request body", err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return c.dispatch(ctx, dispatchRequest{method: http.MethodPost, url: endpoint, body: body, headers: headers})
}

func statusText(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes)
}

// redactURLError strips the credential from the URL embedded in *url.Error.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: observability.RedactURL(ue.URL), Err: ue.Err}
	}
	return err
}

func (c *Client) withKey(endpoint string) string {
	return endpoint + "?key=" + url.QueryEscape(c.apiKey)
}

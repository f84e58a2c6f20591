package connection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const senderLogPrefix = "connection:sender"

// ContentType marks request bodies as encoded envelopes.
const ContentType = "application/x-cadence-envelope"

// Sender delivers one encoded envelope to the proxy. A nil error means the
// proxy accepted the envelope; the protocol reply arrives separately.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// HTTPSender POSTs envelopes to the proxy's request endpoint. It is safe for
// concurrent use.
type HTTPSender struct {
	url    string
	client *http.Client
}

// NewHTTPSender creates a sender for proxyURL. A nil client gets a pooled
// client sized for many concurrent requests.
func NewHTTPSender(proxyURL string, client *http.Client) *HTTPSender {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 64
		client = &http.Client{Transport: transport, Timeout: 2 * time.Minute}
	}
	return &HTTPSender{url: strings.TrimRight(proxyURL, "/") + "/", client: client}
}

func (s *HTTPSender) Send(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s - failed to build request: %w", senderLogPrefix, err)
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s - failed to post to %s: %w", senderLogPrefix, s.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s - proxy returned %s", senderLogPrefix, resp.Status)
	}
	return nil
}

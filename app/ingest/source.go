package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

// TextMapSource fetches the translation map of one language: a JSON object
// from vocabulary id to translation.
type TextMapSource interface {
	FetchTextMap(ctx context.Context, url string) (map[int64]string, error)
}

type HTTPSource struct {
	client *resty.Client
}

// NewHTTPSource returns a source whose requests time out after timeout (no
// timeout when zero).
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{client: resty.New().SetTimeout(timeout)}
}

var _ TextMapSource = &HTTPSource{}

func (s *HTTPSource) FetchTextMap(ctx context.Context, url string) (map[int64]string, error) {
	start := time.Now()
	res, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", common.ErrTransientIO, url, err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status code %d", common.ErrTransientIO, url, res.StatusCode())
	}

	textMap := make(map[int64]string)
	if err := json.NewDecoder(body).Decode(&textMap); err != nil {
		// a connection dropped mid-body is not a malformed document
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading %s: %w", common.ErrTransientIO, url, err)
		}
		return nil, fmt.Errorf("%w: text map from %s: %w", common.ErrDecode, url, err)
	}
	slog.Debug("fetched text map", "url", url, "entries", len(textMap), "elapsed", time.Since(start))
	return textMap, nil
}

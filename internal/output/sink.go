package output

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// deliveryTimeout bounds the POST when the destination is a URL. The report
// is the run's entire product, so network delivery fails fast and loudly
// rather than hanging the process.
const deliveryTimeout = 10 * time.Second

// Sink writes a rendered report to its destination: a URL (blocking POST) or
// a local path (relative paths resolve against baseDir). Standard-output
// delivery is the handler's job; the sink only handles persistence.
type Sink struct {
	baseDir string
	client  *resty.Client
	logger  *zap.Logger
}

// NewSink creates a Sink. A zero timeout selects the default.
func NewSink(baseDir string, timeout time.Duration, logger *zap.Logger) *Sink {
	if timeout <= 0 {
		timeout = deliveryTimeout
	}
	client := resty.New().SetTimeout(timeout)
	return &Sink{baseDir: baseDir, client: client, logger: logger.Named("sink")}
}

// Deliver writes rendered to destination.
func (s *Sink) Deliver(destination, rendered string) error {
	if isURL(destination) {
		return s.post(destination, rendered)
	}
	return s.save(destination, rendered)
}

// post issues the blocking POST. A transport timeout becomes a structured
// delivery error naming the destination; other transport failures propagate.
func (s *Sink) post(destination, rendered string) error {
	s.logger.Info("Posting report", zap.String("url", destination))
	resp, err := s.client.R().SetBody(rendered).Post(destination)
	if err != nil {
		if isTimeout(err) {
			return schemas.NewDeliveryError(destination, "request timed out")
		}
		return fmt.Errorf("posting report to %s: %w", destination, err)
	}
	s.logger.Debug("Posted report",
		zap.String("url", destination),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}

// save overwrites the destination file, creating parent directories as
// needed.
func (s *Sink) save(destination, rendered string) error {
	path := destination
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	return nil
}

// isURL reports whether destination parses with both a scheme and a host.
func isURL(destination string) bool {
	u, err := url.Parse(destination)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

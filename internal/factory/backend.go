package factory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jonboulle/clockwork"

	"github.com/earth-sentinel/sentinel-dash/internal/client"
	"github.com/earth-sentinel/sentinel-dash/internal/common"
	"github.com/earth-sentinel/sentinel-dash/internal/config"
	"github.com/earth-sentinel/sentinel-dash/internal/log"
)

// CreateBackendClient builds the remote service client and runs a bounded
// reachability probe. An unreachable backend is logged, not fatal: the
// dashboard starts anyway and serves stale-capable state.
func CreateBackendClient(ctx context.Context, conf config.Backend, timeout time.Duration, clock clockwork.Clock) (*client.Client, common.CloseFunc, error) {
	logger := log.Logger()

	_, err := url.Parse(conf.BaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid backend base URL %q: %w", conf.BaseURL, err)
	}

	httpClient := &http.Client{Timeout: timeout}

	ret := client.New(conf.BaseURL, httpClient, clock)

	err = retry.Do(
		func() error {
			_, err := ret.GetDispatchDashboard(ctx)

			return err
		},
		retry.Context(ctx),
		retry.Attempts(conf.Probe.Attempts),
		retry.RetryIf(func(err error) bool {
			// A reachable backend answering errors is good enough to
			// start polling against.
			return errors.Is(err, client.ErrNetwork)
		}),
		retry.Delay(conf.Probe.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Error(err, "Backend probe failed, starting with an empty snapshot", "baseURL", conf.BaseURL)
	}

	closeFunc := func(context.Context) error {
		httpClient.CloseIdleConnections()

		return nil
	}

	return ret, closeFunc, nil
}

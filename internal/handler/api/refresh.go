package api

import (
	"context"
	"math"
	"strconv"

	"EconDash/internal/domain/models"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

const refreshLockKey = "refresh:lock"

// refresh throttles by client IP, takes the refresh lock and runs the
// updater. A summary that could not be persisted is still returned.
func (h *DashboardHandler) refresh(c echo.Context, opts models.RunOptions) (*models.RunSummary, error) {
	ip := c.RealIP()
	if h.limiter != nil && !h.limiter.Allow(ip) {
		wait := h.limiter.RetryAfter(ip)
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		h.l.Warn("refresh rate limited", applogger.String("remote", ip))
		return nil, xhttp.TooManyRequestsError("too many refresh requests").WithParam("retry_after_seconds", math.Ceil(wait.Seconds()))
	}

	if h.locks != nil {
		ok, err := h.locks.TryLock(c.Request().Context(), refreshLockKey, h.refreshTimeout)
		if err != nil {
			h.l.Warn("refresh lock unavailable", applogger.Error(err))
		} else if !ok {
			return nil, models.ErrRefreshInProgress
		} else {
			defer func() {
				if err := h.locks.Unlock(context.Background(), refreshLockKey); err != nil {
					h.l.Warn("refresh unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.refreshTimeout)
	defer cancel()

	h.l.Info("manual refresh",
		applogger.String("remote", ip),
		applogger.String("trigger", opts.Trigger),
		applogger.Bool("force", opts.Force),
		applogger.Strings("only", opts.Only),
	)
	summary, err := h.runner.Run(ctx, opts)
	if err != nil && summary != nil {
		h.l.Error("refresh summary not persisted", applogger.Error(err))
		return summary, nil
	}
	return summary, err
}

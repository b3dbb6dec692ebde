package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ReachabilityStatus exposes the monitor's cached probe result
type ReachabilityStatus interface {
	LastStatus() (reachable bool, at time.Time, ok bool)
}

// HealthCheck reports liveness along with the last known network status
func HealthCheck(status ReachabilityStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := echo.Map{
			"status":  "healthy",
			"service": "feedsync",
		}
		if reachable, at, ok := status.LastStatus(); ok {
			resp["network"] = echo.Map{"reachable": reachable, "checked_at": at}
		}
		return c.JSON(http.StatusOK, resp)
	}
}

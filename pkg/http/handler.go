package http

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// Drainer is implemented by handlers that own hijacked connections, such
// as websockets, which echo's graceful shutdown does not track. Server.Stop
// calls Drain after the listener is closed.
type Drainer interface {
	Drain(ctx context.Context) error
}

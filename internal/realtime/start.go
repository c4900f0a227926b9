package realtime

import (
	"context"
	"net/http"
	"strconv"

	"delivery-hub/internal/common/httpx"
	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/connections/rabbitmq"
)

// Run wires registry, broadcaster, event bridge and the websocket endpoint
// together and serves until ctx is cancelled.
func Run(ctx context.Context, port int, mq *rabbitmq.Client, opts Options) error {
	lg := logger.New("realtime-gateway")

	registry := NewRegistry()
	broadcaster := NewBroadcaster(registry, lg)
	handler := NewHandler(registry, opts, lg)
	bridge := NewBridge(mq, broadcaster, lg)

	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- bridge.Run(ctx) }()

	mux := http.NewServeMux()
	mux.Handle("GET /ws", handler)

	srvErr := make(chan error, 1)
	go func() { srvErr <- httpx.New(":"+strconv.Itoa(port), mux).Run(ctx) }()

	select {
	case err := <-bridgeErr:
		if err != nil {
			lg.Error("bridge_stopped", err, nil)
		}
		return err
	case err := <-srvErr:
		return err
	}
}

package order

import (
	"context"
	"database/sql"
	"strconv"

	"delivery-hub/internal/common/httpx"
	"delivery-hub/internal/connections/rabbitmq"
	"delivery-hub/internal/order/handlers"
	"delivery-hub/internal/order/repository"
	"delivery-hub/internal/order/service"
)

// Run serves the order-mutation HTTP API until ctx is cancelled.
func Run(ctx context.Context, port int, db *sql.DB, mq *rabbitmq.Client) error {
	repo := repository.New(db)
	svc := service.New(repo, service.NewRabbitPublisher(mq))
	h := handlers.New(svc)

	srv := httpx.New(":"+strconv.Itoa(port), handlers.Router(h))
	return srv.Run(ctx)
}

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/merchantkit/agent-checkout/internal/acp"
	"github.com/merchantkit/agent-checkout/internal/aws"
	"github.com/merchantkit/agent-checkout/internal/catalog"
	"github.com/merchantkit/agent-checkout/internal/checkout"
	"github.com/merchantkit/agent-checkout/internal/idempotency"
	"github.com/merchantkit/agent-checkout/internal/session"
	"github.com/merchantkit/agent-checkout/internal/ucp"
)

func setupRouter(engine *checkout.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Both protocol surfaces are backed by the one engine.
	acp.RegisterRoutes(r, acp.Config{Engine: engine})
	ucp.RegisterRoutes(r, ucp.Config{Engine: engine})

	return r
}

func defaultFulfillmentOptions() []checkout.FulfillmentOption {
	return []checkout.FulfillmentOption{
		{ID: "standard", Label: "Standard (5-7 business days)", CostCents: 599, EstDays: 7},
		{ID: "express", Label: "Express (1-2 business days)", CostCents: 1299, EstDays: 2},
	}
}

func envInt64(name string, def int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("invalid %s=%q: %v", name, raw, err)
	}
	return v
}

func main() {
	cfg := checkout.Config{
		TaxRateBP:           envInt64("TAX_RATE_BP", 0),
		PriceToleranceCents: envInt64("PRICE_TOLERANCE_CENTS", 0),
		FulfillmentOptions:  defaultFulfillmentOptions(),
	}

	var (
		store  checkout.SessionStore
		oracle checkout.Oracle
		idemp  checkout.IdempotencyIndex
	)

	sessionsTable := os.Getenv("SESSIONS_TABLE")
	if sessionsTable != "" {
		clients, err := aws.NewAWSClients(context.Background())
		if err != nil {
			log.Fatalf("failed to init aws clients: %v", err)
		}

		ttl := time.Duration(envInt64("SESSION_TTL_HOURS", 48)) * time.Hour
		store = session.NewDynamoStore(clients.DynamoDB, sessionsTable, ttl)
		oracle = catalog.NewDynamoOracle(clients.DynamoDB, os.Getenv("PRODUCTS_TABLE"))
		idemp = idempotency.NewDynamoIndex(clients.DynamoDB, os.Getenv("IDEMPOTENCY_TABLE"), ttl)

		if queueURL := os.Getenv("ORDER_EVENTS_QUEUE_URL"); queueURL != "" {
			publisher := aws.NewPublisher(clients.SQS, queueURL)
			cfg.OnCompleted = func(ctx context.Context, sess *checkout.CheckoutSession) {
				body, _ := json.Marshal(map[string]interface{}{
					"order_id":     sess.OrderID,
					"session_id":   sess.ID,
					"currency":     sess.Currency,
					"total_cents":  sess.Totals.TotalCents,
					"completed_at": sess.UpdatedAt.Format(time.RFC3339),
				})
				attrs := map[string]string{
					"order_id":   sess.OrderID,
					"session_id": sess.ID,
				}
				// Completion already committed; a lost event must not fail it.
				if err := publisher.SendOrderEvent(ctx, string(body), attrs); err != nil {
					log.Printf("order event publish failed for order=%s: %v", sess.OrderID, err)
				}
			}
		}
	} else {
		// Single-process mode: in-memory store and the demo catalog.
		store = session.NewMemoryStore()
		oracle = catalog.NewStaticOracle(catalog.DemoQuotes())
		idemp = idempotency.NewMemoryIndex()
	}

	engine := checkout.NewEngine(store, oracle, checkout.NewCouponTable(checkout.DefaultCoupons()), idemp, cfg)
	r := setupRouter(engine)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

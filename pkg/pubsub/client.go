package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps the Pub/Sub v2 client used by the event relay.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient creates a Pub/Sub v2 client and verifies the domain events
// topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: gcp.ProjectID,
		cfg:       cfg,
	}

	if err := c.ensureTopicExists(ctx, cfg.DomainEventsTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("pubsub topic name is required")
	}
	fullName := fmt.Sprintf("projects/%s/topics/%s", c.projectID, trimmed)
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", trimmed)
		}
		return fmt.Errorf("checking topic %q: %w", trimmed, err)
	}
	return nil
}

// DomainPublisher returns a publisher bound to the domain events topic.
func (c *Client) DomainPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.DomainEventsTopic)
}

// Publisher returns a publisher for the named topic.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	return c.client.Publisher(trimmed)
}

// Ping verifies the topic is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.ensureTopicExists(ctx, c.cfg.DomainEventsTopic)
}

// Close releases the underlying client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

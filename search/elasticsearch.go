package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"

	"example.com/shipchain/services/shipment/config"
	"example.com/shipchain/services/shipment/models"
)

// Indexer mirrors shipment and container documents into Elasticsearch so
// operators can search them. Indexing is best-effort; the off-chain store
// stays the system of record.
type Indexer interface {
	IndexShipment(ctx context.Context, shipment *models.Shipment) error
	IndexContainer(ctx context.Context, container *models.Container) error
}

// Client wraps the Elasticsearch connection with index naming.
type Client struct {
	es     *elasticsearch.Client
	prefix string
}

// NewClient creates a new Elasticsearch client
func NewClient(cfg config.Config) (*Client, error) {
	elasticCfg := elasticsearch.Config{
		Addresses: []string{cfg.ElasticSearchURL},
		Username:  cfg.ElasticSearchUsername,
		Password:  cfg.ElasticSearchPassword,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}

	client, err := elasticsearch.NewClient(elasticCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	// Check the connection
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch returned error: %s", res.String())
	}

	log.Info().Msg("Successfully connected to Elasticsearch")
	return &Client{es: client, prefix: cfg.ElasticSearchPrefix}, nil
}

// FormatIndex adds the prefix to the index name
func (c *Client) FormatIndex(indexName string) string {
	return c.prefix + "-" + indexName
}

// EnsureIndices ensures that all required indices exist
func (c *Client) EnsureIndices() error {
	indices := []string{
		"shipments",
		"containers",
	}

	for _, index := range indices {
		formattedIndex := c.FormatIndex(index)

		exists, err := c.indexExists(formattedIndex)
		if err != nil {
			return err
		}

		if !exists {
			log.Info().Msgf("Creating index %s", formattedIndex)
			if err := c.createIndex(formattedIndex); err != nil {
				return err
			}
		}
	}

	return nil
}

// IndexShipment upserts a shipment document keyed by its hash.
func (c *Client) IndexShipment(ctx context.Context, shipment *models.Shipment) error {
	return c.indexDocument(ctx, c.FormatIndex("shipments"), shipment.ShipmentHash, shipment)
}

// IndexContainer upserts a container document keyed by its id.
func (c *Client) IndexContainer(ctx context.Context, container *models.Container) error {
	return c.indexDocument(ctx, c.FormatIndex("containers"), container.ContainerID, container)
}

func (c *Client) indexDocument(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for index %s: %w", index, err)
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("error indexing document %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document %s/%s: %s", index, id, res.String())
	}

	return nil
}

// indexExists checks if an index exists
func (c *Client) indexExists(index string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{index})
	if err != nil {
		return false, fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// createIndex creates an index
func (c *Client) createIndex(index string) error {
	res, err := c.es.Indices.Create(index)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	return nil
}

// Package docparse extracts typed structures from document elements:
// tables, lists, code blocks, formulas and images.
//
// Basic usage:
//
//	client, err := docparse.New()
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close(context.Background())
//
//	resp := client.Parse(ctx, &model.Element{
//	    Type: model.ElementTypeTable,
//	    Text: "Name | Age\nAda | 36",
//	})
//	if resp.Success {
//	    table := resp.Result.StructuredData.(*model.TableStructure)
//	    // ...
//	}
//
// Parsing never raises: failed or unparseable elements degrade to
// low-confidence fallback results, and hard errors surface in the
// response's Error field. For finer control the manager, cache and
// monitor packages are also available directly.
package docparse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsawler/docparse/code"
	"github.com/tsawler/docparse/formula"
	"github.com/tsawler/docparse/imageparse"
	"github.com/tsawler/docparse/lists"
	"github.com/tsawler/docparse/manager"
	"github.com/tsawler/docparse/model"
	"github.com/tsawler/docparse/tables"
)

// Option configures a Client during New.
type Option func(*Client)

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(c *Client) { c.config = config }
}

// WithLogger sets the logger used by the orchestration layer.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithOCR installs a text recognizer on the image parser. Build with the
// ocr tag for the bundled Tesseract client, or supply any implementation
// of imageparse.TextRecognizer.
func WithOCR(rec imageparse.TextRecognizer) Option {
	return func(c *Client) { c.recognizer = rec }
}

// Client is the assembled parsing pipeline: the five built-in parsers
// registered on a manager with caching, monitoring and fallbacks.
type Client struct {
	config     Config
	logger     *slog.Logger
	recognizer imageparse.TextRecognizer
	manager    *manager.Manager
}

// New creates a client with all built-in parsers registered.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config.Manager.MaxConcurrent < 0 {
		return nil, fmt.Errorf("docparse: negative MaxConcurrent %d", c.config.Manager.MaxConcurrent)
	}

	m := manager.NewWithConfig(c.config.Manager)
	m.SetLogger(c.logger)

	m.RegisterParser(tables.ParserName, tables.NewParserWithConfig(c.config.Tables))
	m.RegisterParser(lists.ParserName, lists.NewParserWithConfig(c.config.Lists))
	m.RegisterParser(code.ParserName, code.NewParserWithConfig(c.config.Code))
	m.RegisterParser(formula.ParserName, formula.NewParserWithConfig(c.config.Formula))

	img := imageparse.NewParserWithConfig(c.config.Image)
	if c.recognizer != nil {
		img.SetRecognizer(c.recognizer)
	}
	m.RegisterParser(imageparse.ParserName, img)

	c.manager = m
	return c, nil
}

// Parse parses one element through the full pipeline.
func (c *Client) Parse(ctx context.Context, el *model.Element, opts ...manager.ParseOption) *model.ParseResponse {
	return c.manager.ParseElement(ctx, el, opts...)
}

// ParseBatch parses elements concurrently, preserving input order.
func (c *Client) ParseBatch(ctx context.Context, els []*model.Element, opts ...manager.ParseOption) []*model.ParseResponse {
	return c.manager.ParseBatch(ctx, els, opts...)
}

// Statistics reports pipeline-wide aggregates.
func (c *Client) Statistics() manager.Statistics {
	return c.manager.Statistics()
}

// HealthCheck reports whether the pipeline is within its thresholds.
func (c *Client) HealthCheck() manager.Health {
	return c.manager.HealthCheck()
}

// Manager exposes the underlying manager for advanced use.
func (c *Client) Manager() *manager.Manager {
	return c.manager
}

// Close drains in-flight work and stops the background tickers.
func (c *Client) Close(ctx context.Context) error {
	return c.manager.Shutdown(ctx)
}

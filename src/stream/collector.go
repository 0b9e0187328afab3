// Package stream provides the Collector agent for the distributed submission path.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"weld-agent/src/broker"
	"weld-agent/src/contracts"
	"weld-agent/src/logger"
)

// Collector consumes edit submissions from the broker and appends them to
// the edit stream log. One collector runs per merge session.
type Collector struct {
	broker broker.Broker
	log    Log
	logger logger.Logger
}

// NewCollector creates a collector feeding the given log.
func NewCollector(brk broker.Broker, log Log, lgr logger.Logger) *Collector {
	return &Collector{
		broker: brk,
		log:    log,
		logger: lgr,
	}
}

// Run starts the collector's main loop. It subscribes to weld.edits.raw and
// appends incoming entries until the context is cancelled or the channel
// closes. Malformed submissions are logged and skipped, never fatal.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("[Collector] Starting...")

	msgChan, err := c.broker.Subscribe(ctx, contracts.TopicEditsRaw, "weld-collector")
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicEditsRaw, err)
	}

	c.logger.Info("[Collector] Listening for edits on '%s' topic...", contracts.TopicEditsRaw)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				c.logger.Info("[Collector] Message channel closed, shutting down")
				return nil
			}

			if err := c.processSubmission(msg); err != nil {
				c.logger.Error("[Collector] Error processing submission: %v", err)
			}

		case <-ctx.Done():
			c.logger.Info("[Collector] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

// processSubmission unmarshals and appends one edit entry.
func (c *Collector) processSubmission(msg broker.Message) error {
	var entry contracts.EditEntry
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		return fmt.Errorf("failed to unmarshal edit entry: %w", err)
	}

	if err := c.log.Append(entry); err != nil {
		return err
	}

	c.logger.Debug("[Collector] Appended %s edit for '%s' from agent %s",
		entry.Operation, entry.FilePath, entry.AgentID)

	return nil
}

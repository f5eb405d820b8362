// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/teradata-labs/promptver/pkg/prompts"
)

// DefaultSubjectPrefix prefixes the subject of every status change.
const DefaultSubjectPrefix = "prompts.version.status"

// Publisher is the part of jetstream.JetStream used to publish.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStream publishes events as JSON to "<prefix>.<template id>". The
// event id is the message id so the stream drops redeliveries inside its
// duplicate window.
type JetStream struct {
	js     Publisher
	prefix string
	logger *zap.Logger
}

// NewJetStream creates a notifier publishing through js.
func NewJetStream(js Publisher, subjectPrefix string, logger *zap.Logger) *JetStream {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JetStream{
		js:     js,
		prefix: subjectPrefix,
		logger: logger.With(zap.String("component", "notify-jetstream")),
	}
}

// Subject returns the subject events of templateID are published on.
func (n *JetStream) Subject(templateID string) string {
	return n.prefix + "." + templateID
}

// Publish sends ev and waits for the stream's acknowledgement.
func (n *JetStream) Publish(ctx context.Context, ev prompts.StatusChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	subject := n.Subject(ev.TemplateID)
	ack, err := n.js.Publish(ctx, subject, data, jetstream.WithMsgID(ev.ID))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	n.logger.Debug("Published status change",
		zap.String("subject", subject),
		zap.String("event_id", ev.ID),
		zap.Uint64("sequence", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate))
	return nil
}

// JetStreamConfig configures DialJetStream.
type JetStreamConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
	// DuplicateWindow is how long the stream remembers message ids.
	DuplicateWindow time.Duration
}

// DialJetStream connects to NATS, ensures the stream capturing the status
// subjects exists and returns a notifier with the function that closes the
// connection.
func DialJetStream(ctx context.Context, cfg JetStreamConfig, logger *zap.Logger) (*JetStream, func(), error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Stream == "" {
		cfg.Stream = "PROMPT_VERSIONS"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.DuplicateWindow == 0 {
		cfg.DuplicateWindow = 2 * time.Minute
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("promptver"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Duplicates: cfg.DuplicateWindow,
	}); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	return NewJetStream(js, cfg.SubjectPrefix, logger), nc.Close, nil
}

var _ prompts.Notifier = (*JetStream)(nil)

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"weather-widget/internal/models"
)

const DefaultTopicPrefix = "weather-widget/models"

// Publisher sends committed display models as retained JSON messages.
type Publisher struct {
	client      paho.Client
	topicPrefix string
}

// Connect dials the broker. brokerURL accepts mqtt://, tcp:// or host:port.
func Connect(brokerURL, clientID, topicPrefix string) (*Publisher, error) {
	opts := paho.NewClientOptions()
	url := strings.TrimSpace(brokerURL)
	if strings.HasPrefix(url, "mqtt://") {
		url = "tcp://" + strings.TrimPrefix(url, "mqtt://")
	}
	if !strings.Contains(url, "://") {
		url = "tcp://" + url
	}
	opts.AddBroker(url)
	if strings.TrimSpace(clientID) == "" {
		clientID = "weather-widget-" + time.Now().Format("150405.000")
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.OnConnectionLost = func(_ paho.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	}
	opts.OnConnect = func(_ paho.Client) {
		slog.Info("mqtt connected", "broker", url)
	}

	c := paho.NewClient(opts)
	tok := c.Connect()
	if ok := tok.WaitTimeout(15 * time.Second); !ok {
		return nil, errors.New("mqtt connect timed out")
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}

	prefix := strings.Trim(strings.TrimSpace(topicPrefix), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Publisher{client: c, topicPrefix: prefix}, nil
}

// Topic returns the topic a model for location is published on.
func Topic(prefix, location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	loc = strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', ' ':
			return '-'
		}
		return r
	}, loc)
	if loc == "" {
		loc = "unknown"
	}
	return prefix + "/" + loc
}

func (p *Publisher) Publish(ctx context.Context, model models.DisplayModel) error {
	b, err := json.Marshal(model)
	if err != nil {
		return err
	}
	tok := p.client.Publish(Topic(p.topicPrefix, model.Current.Location), 1, true, b)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(1000)
}

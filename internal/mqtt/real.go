package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/mfeltham/screenduty/internal/logic"
	"github.com/mfeltham/screenduty/internal/metrics"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Client is the real bus client on paho. Subscriptions are tracked and
// restored automatically after a reconnect; while disconnected the core
// simply holds the last known occupancy until a new message arrives.
type Client struct {
	client paho.Client
	opts   Options

	mu   sync.Mutex
	subs map[string]func(topic string, payload []byte)
}

// Connect establishes the broker connection with automatic reconnection.
func Connect(opts Options) (*Client, error) {
	c := &Client{
		opts: opts,
		subs: make(map[string]func(string, []byte)),
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.restoreSubscriptions)
	if opts.Username != "" {
		po.SetUsername(opts.Username).SetPassword(opts.Password)
	}

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to broker: timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// SubscribeOccupancy parses each message on the occupancy topic and passes
// the coerced presence value to handler. Malformed payloads are dropped
// and counted; the previous occupancy value is retained by virtue of the
// handler never being called.
func (c *Client) SubscribeOccupancy(handler func(present bool)) error {
	return c.subscribe(c.opts.OccupancyTopic, func(topic string, payload []byte) {
		present, err := ParseOccupancy(payload, c.opts.OccupancyField)
		if err != nil {
			metrics.BusPayloadsDropped.Inc()
			log.Printf("mqtt: dropping message on %s: %v", topic, err)
			return
		}
		handler(present)
	})
}

// SubscribeWake calls handler for any message on the wake topic. The
// payload is irrelevant: the message itself is the pulse request.
func (c *Client) SubscribeWake(handler func()) error {
	return c.subscribe(c.opts.WakeTopic, func(string, []byte) {
		handler()
	})
}

func (c *Client) subscribe(topic string, fn func(topic string, payload []byte)) error {
	if topic == "" {
		return fmt.Errorf("subscribe: empty topic")
	}
	c.mu.Lock()
	c.subs[topic] = fn
	c.mu.Unlock()

	if err := c.doSubscribe(topic, fn); err != nil {
		c.mu.Lock()
		delete(c.subs, topic)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Client) doSubscribe(topic string, fn func(string, []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		fn(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// restoreSubscriptions re-establishes tracked subscriptions after the
// paho auto-reconnect kicks in.
func (c *Client) restoreSubscriptions(_ paho.Client) {
	c.mu.Lock()
	subs := make(map[string]func(string, []byte), len(c.subs))
	for t, fn := range c.subs {
		subs[t] = fn
	}
	c.mu.Unlock()

	for topic, fn := range subs {
		if err := c.doSubscribe(topic, fn); err != nil {
			log.Printf("mqtt: restore subscription: %v", err)
		}
	}
}

// PublishState sends a snapshot to the state topic.
// QoS 0, not retained: snapshots supersede each other every second.
func (c *Client) PublishState(snap logic.Snapshot) error {
	payload, err := FormatState(snap)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	token := c.client.Publish(c.opts.StateTopic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish state: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// PublishSystem sends a lifecycle event to the system topic.
// QoS 1: startup and shutdown should survive a flaky link.
func (c *Client) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystem(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	token := c.client.Publish(c.opts.SystemTopic, 1, event.Retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish system: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	c.client.Disconnect(1000) // milliseconds to flush in-flight messages
	return nil
}

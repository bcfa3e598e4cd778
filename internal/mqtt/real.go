package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned when a message was queued instead of sent.
var ErrNotConnected = errors.New("mqtt not connected")

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Topics     Topics
	BufferSize int
}

// RealPublisher talks to an actual broker. Messages published while the
// connection is down are queued and replayed on reconnect.
type RealPublisher struct {
	client   paho.Client
	topics   Topics
	commands chan []byte

	mu      sync.Mutex
	queued  *backlog
	started bool
}

// NewRealPublisher connects to the broker and subscribes to the command topic.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	p := &RealPublisher{
		topics:   o.Topics,
		commands: make(chan []byte, 16),
		queued:   newBacklog(o.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventOffline})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(o.Topics.System(), will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("MQTT connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	token := c.Subscribe(p.topics.Set(), 1, func(_ paho.Client, m paho.Message) {
		payload := append([]byte(nil), m.Payload()...)
		select {
		case p.commands <- payload:
		default:
			log.Warn().Str("topic", m.Topic()).Msg("Command dropped, queue full")
		}
	})
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", p.topics.Set()).Msg("Subscribe failed")
	}

	p.mu.Lock()
	replay := p.queued.take()
	reconnect := p.started
	p.started = true
	p.mu.Unlock()

	for _, msg := range replay {
		c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}
	if len(replay) > 0 {
		log.Info().Int("messages", len(replay)).Msg("MQTT backlog replayed")
	}

	if reconnect {
		if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: EventReconnected}); err != nil {
			log.Warn().Err(err).Msg("Reconnect event not sent")
		}
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.queued.add(pending{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return ErrNotConnected
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PushDelta publishes delta on the state topic.
func (p *RealPublisher) PushDelta(delta string) error {
	return p.publish(p.topics.State(), 0, false, []byte(delta))
}

// PublishSystem publishes a lifecycle event with QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(p.topics.System(), 1, event.Retained, payload)
}

// CheckForUpdate publishes an update-check request.
func (p *RealPublisher) CheckForUpdate() {
	err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: EventUpdateCheck})
	if err != nil && !errors.Is(err, ErrNotConnected) {
		log.Warn().Err(err).Msg("Update check not sent")
	}
}

// Commands delivers cloud command payloads.
func (p *RealPublisher) Commands() <-chan []byte {
	return p.commands
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

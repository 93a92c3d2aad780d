package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paihq/pai/internal/event_bus"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// RecordMessage is the JSON body of a record change published to the exchange.
type RecordMessage struct {
	UserId    int             `json:"userId"`
	Kind      string          `json:"kind"`
	Id        string          `json:"id"`
	Action    string          `json:"action"`
	Previous  json.RawMessage `json:"previous,omitempty"`
	Current   json.RawMessage `json:"current,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards record events of the in-process bus to a topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  channel
	exchange string
	unsubs   []func()
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{channel: ch, exchange: exchange}
}

// Attach subscribes the publisher to the record events of bus.
func (p *Publisher) Attach(bus *event_bus.EventBus) {
	for _, eventType := range []event_bus.EventType{event_bus.RecordCreated, event_bus.RecordUpdated, event_bus.RecordDeleted} {
		unsub := event_bus.SubscribeTyped[event_bus.RecordChanged](bus, eventType, func(e event_bus.EventT[event_bus.RecordChanged]) error {
			return p.Publish(e.Context(), RecordMessage{
				UserId:    e.Data.UserId,
				Kind:      e.Data.Kind,
				Id:        e.Data.Id,
				Action:    action(eventType),
				Previous:  e.Data.Previous,
				Current:   e.Data.Current,
				Timestamp: e.Timestamp,
			})
		})
		p.unsubs = append(p.unsubs, unsub)
	}
}

func (p *Publisher) Publish(ctx context.Context, msg RecordMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(msg.Kind, msg.Action)
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	log.Debugf("published %s for record %s", key, msg.Id)
	return nil
}

func (p *Publisher) Close() error {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey is records.<kind>.<action>.
func RoutingKey(kind, action string) string {
	return "records." + kind + "." + action
}

// action maps record.created to created.
func action(eventType event_bus.EventType) string {
	_, after, _ := strings.Cut(string(eventType), ".")
	return after
}

// Package rabbitmq は予約判定イベントを RabbitMQ に送信する
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
)

// DefaultQueue は予約判定イベントの既定のキュー名
const DefaultQueue = "booking.decided"

var ErrPublisherClosed = errors.New("パブリッシャーは既に閉じられています")

// Publisher は1本の接続とチャネルを使い回してイベントを送信する
// amqp のチャネルはゴルーチンセーフではないため送信は mu で直列化する
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	closed bool
}

// NewPublisher は接続を開き、キューを durable で宣言する
func NewPublisher(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗しました: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// PublishBookingDecided は予約判定イベントを永続メッセージとして送信する
func (p *Publisher) PublishBookingDecided(ctx context.Context, event booking.DecidedEvent) error {
	msg, err := buildPublishing(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("イベント送信に失敗: %w", err)
	}
	return nil
}

// Close はチャネルと接続を閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.ch.Close()
	return p.conn.Close()
}

func buildPublishing(event booking.DecidedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Type:         "booking.decided",
		MessageId:    fmt.Sprintf("rnum-%d", event.ReservationNumber),
		Body:         body,
	}, nil
}

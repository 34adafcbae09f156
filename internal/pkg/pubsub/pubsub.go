package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelShootEvents = "photoshoot_events"

	EventShootMirrored     = "shoot_mirrored"
	EventShootMirrorFailed = "shoot_mirror_failed"
)

// ShootEvent 生成记录状态变更通知
type ShootEvent struct {
	Type    string   `json:"type"`
	OwnerID string   `json:"owner_id"`
	ShootID string   `json:"shoot_id"`
	Status  string   `json:"status"`
	Images  []string `json:"images,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish 发布事件
func (p *Publisher) Publish(ctx context.Context, event *ShootEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal shoot event: %w", err)
	}

	return p.client.Publish(ctx, ChannelShootEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅事件，阻塞直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ShootEvent)) error {
	ps := s.client.Subscribe(ctx, ChannelShootEvents)
	defer ps.Close()

	// 等待订阅生效
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event ShootEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}

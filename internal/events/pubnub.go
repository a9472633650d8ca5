package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubnubgo "github.com/pubnub/go/v7"
)

type PubNubConfig struct {
	PublishKey, SubscribeKey, SecretKey, UserID, Channel string
}

// PubNubPublisher pushes events to the admin dashboard channel.
type PubNubPublisher struct {
	pn      *pubnubgo.PubNub
	channel string
}

func NewPubNub(cfg *PubNubConfig) (*PubNubPublisher, error) {
	if cfg == nil {
		return nil, errors.New("events.NewPubNub: cfg must not be nil")
	}
	if cfg.PublishKey == "" || cfg.Channel == "" {
		return nil, errors.New("events.NewPubNub: publish key and channel are required")
	}

	pnCfg := pubnubgo.NewConfigWithUserId(pubnubgo.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	return &PubNubPublisher{pn: pubnubgo.NewPubNub(pnCfg), channel: cfg.Channel}, nil
}

func (p *PubNubPublisher) Publish(ctx context.Context, e *Event) error {
	msg, err := prepareMessage(e)
	if err != nil {
		return err
	}

	_, _, err = p.pn.PublishWithContext(ctx).Channel(p.channel).Message(msg).Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish %s: %w", e.Type, err)
	}
	return nil
}

func prepareMessage(e *Event) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	return string(b), nil
}

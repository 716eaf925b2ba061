package notify

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 2000

// PushSender delivers a message to device player ids in one provider call.
type PushSender interface {
	SendPush(ctx context.Context, playerIDs []string, message string) error
}

// SMSSender delivers a message to phone numbers in one provider call.
type SMSSender interface {
	SendSMS(ctx context.Context, phones []string, message string) error
}

// FanoutConfig tunes dispatch.
type FanoutConfig struct {
	BatchSize   int
	Concurrency int
}

// Fanout dispatches one message over every configured channel. Channels and batches
// are independent: a failing call is recorded in the Report and never stops the others.
type Fanout struct {
	push   PushSender
	sms    SMSSender
	cfg    FanoutConfig
	logger *slog.Logger
}

// NewFanout builds a dispatcher. A nil sender disables its channel.
func NewFanout(cfg FanoutConfig, push PushSender, sms SMSSender, logger *slog.Logger) *Fanout {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Fanout{
		push:   push,
		sms:    sms,
		cfg:    cfg,
		logger: logger.With("component", "notify.fanout"),
	}
}

type dispatchCall struct {
	channel Channel
	batch   []string
	send    func(ctx context.Context, batch []string, message string) error
}

// Dispatch sends message to all recipients. It never returns an error.
func (f *Fanout) Dispatch(ctx context.Context, recipients Recipients, message string) Report {
	calls := f.plan(recipients)
	report := Report{Calls: len(calls)}
	if len(calls) == 0 {
		return report
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for _, call := range calls {
		call := call
		g.Go(func() error {
			err := call.send(gCtx, call.batch, message)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Warn("notification delivery failed", "channel", call.channel, "recipients", len(call.batch), "error", err)
				report.Failures = append(report.Failures, ChannelFailure{
					Channel:    call.channel,
					Recipients: len(call.batch),
					Error:      err.Error(),
				})
				return nil
			}
			f.logger.Info("notification delivered", "channel", call.channel, "recipients", len(call.batch))
			report.Delivered += len(call.batch)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func (f *Fanout) plan(recipients Recipients) []dispatchCall {
	var calls []dispatchCall
	if f.push != nil {
		for _, batch := range chunk(recipients.PlayerIDs, f.cfg.BatchSize) {
			calls = append(calls, dispatchCall{channel: ChannelPush, batch: batch, send: f.push.SendPush})
		}
	}
	if f.sms != nil {
		for _, batch := range chunk(recipients.Phones, f.cfg.BatchSize) {
			calls = append(calls, dispatchCall{channel: ChannelSMS, batch: batch, send: f.sms.SendSMS})
		}
	}
	return calls
}

func chunk(items []string, size int) [][]string {
	if len(items) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

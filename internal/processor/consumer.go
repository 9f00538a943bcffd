package processor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/pipeline"
	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

// Consumer drains the assertion queue on its own goroutine.
type Consumer struct {
	log       *zap.Logger
	processor *Processor
}

func NewConsumer(log *zap.Logger, p *Processor) *Consumer {
	return &Consumer{log: log, processor: p}
}

// Run processes batches from in until ctx is done, in is closed, or a fatal
// error occurs. Commands are forwarded to out in emission order.
func (c *Consumer) Run(ctx context.Context, in *pipeline.Queue[assertion.Batch], out *pipeline.Queue[render.Command]) error {
	defer c.log.Info("assertion consumer stopped")

	for {
		batch, err := in.Receive(ctx)
		if err != nil {
			if errors.Is(err, pipeline.ErrClosed) {
				return nil
			}
			return err
		}

		if len(batch) == 0 {
			c.log.Warn("empty assertion batch")
			continue
		}

		cmds, err := c.processor.Process(ctx, batch)
		for _, cmd := range cmds {
			if !out.Send(cmd) {
				cmd.Release()
			}
		}
		if err != nil {
			if errors.Is(err, ErrFatal) {
				c.log.Error("assertion batch rejected", zap.Int("assertions", len(batch)), zap.Error(err))
				return err
			}
			c.log.Error("assertion batch failed", zap.Int("assertions", len(batch)), zap.Error(err))
			continue
		}

		if ce := c.log.Check(zap.DebugLevel, "assertion batch processed"); ce != nil {
			stats := c.processor.store.Stats()
			ce.Write(
				zap.Int("assertions", len(batch)),
				zap.Int("commands", len(cmds)),
				zap.Int("vertices", stats.Vertices),
				zap.Int("triangles", stats.Triangles),
				zap.Int("pending", stats.Pending),
			)
		}
	}
}

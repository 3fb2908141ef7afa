package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	pkgkafka "github.com/aayeshatech/SYMBOLASTRO/pkg/kafka"
	xlogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
)

// AnalysisRequestHandler consumes analysis commands from Kafka. Each
// command is computed through the use case, which publishes the result.
type AnalysisRequestHandler struct {
	topic  string
	uc     *AnalysisUseCase
	logger *xlogger.Logger
}

func NewAnalysisRequestHandler(topic string, uc *AnalysisUseCase, logger *xlogger.Logger) *AnalysisRequestHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisRequestHandler{topic: topic, uc: uc, logger: logger}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, timeframe}
func (h *AnalysisRequestHandler) Handle(ctx context.Context, b []byte) error {
	var cmd models.AnalysisCommand
	if err := json.Unmarshal(b, &cmd); err != nil {
		h.uc.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent("ERR_DECODE", err)
	}

	_, err := h.uc.Compute(ctx, cmd.Symbol, cmd.Timeframe)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrEmptySymbol), errors.Is(err, models.ErrInvalidTimeframe):
		h.logger.Warn("dropping invalid analysis request",
			xlogger.String("symbol", cmd.Symbol),
			xlogger.String("timeframe", cmd.Timeframe),
			xlogger.Error(err),
		)
		return nil
	default:
		return err
	}
}

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)

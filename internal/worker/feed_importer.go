package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
)

// FlightImporter は外部フィードからフライトを取り込むインターフェース
type FlightImporter interface {
	ImportLiveFlights(ctx context.Context) (int, error)
}

// FeedImporter は外部フィードを定期的に取り込むワーカー
type FeedImporter struct {
	flightService FlightImporter
	interval      time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// NewFeedImporter は新しいフィード取り込みワーカーを作成
func NewFeedImporter(fs FlightImporter, interval time.Duration) *FeedImporter {
	return &FeedImporter{
		flightService: fs,
		interval:      interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *FeedImporter) Start(ctx context.Context) {
	logger.Info("フィード取り込みワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("フィード取り込みワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("フィード取り込みワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.importOnce(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *FeedImporter) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// importOnce はフィードを1回取り込む
func (w *FeedImporter) importOnce(ctx context.Context) {
	log := logger.Get()
	log.Debug("フィード取り込み開始")

	count, err := w.flightService.ImportLiveFlights(ctx)
	if err != nil {
		log.Error("フィード取り込み失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("フィードからフライトを登録", zap.Int("count", count))
	} else {
		log.Debug("取り込み対象なし")
	}
}

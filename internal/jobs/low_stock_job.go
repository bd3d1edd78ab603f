package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/usecase"

	"github.com/robfig/cron/v3"
)

type LowStockLister interface {
	ListLowStock(ctx context.Context) ([]usecase.ProductOutput, error)
}

// LowStockJob は在庫がしきい値を下回りかけている商品を定期的にログへ出します。
type LowStockJob struct {
	products LowStockLister
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// scheduleはcron式か "@every 1h" 形式
func NewLowStockJob(products LowStockLister, schedule string, logger *slog.Logger) *LowStockJob {
	return &LowStockJob{
		products: products,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "low_stock_job"),
	}
}

func (j *LowStockJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		j.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Low stock job started", "schedule", j.schedule)
	return nil
}

// 1回分の実行。見つかった件数を返す
func (j *LowStockJob) RunOnce(ctx context.Context) int {
	items, err := j.products.ListLowStock(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Low stock check failed", "error", err)
		return 0
	}

	for _, p := range items {
		j.logger.WarnContext(ctx, "Product stock is low",
			"product_id", p.ID,
			"name", p.Name,
			"stock_quantity", p.StockQuantity,
		)
	}
	return len(items)
}

// 実行中のジョブが終わるまで待つ
func (j *LowStockJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Low stock job stopped")
}

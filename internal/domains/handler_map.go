package domains

import (
	"context"

	"crp/dptrain/internal/business/train"
	"crp/dptrain/internal/framework"
)

// HandlerFactory Handler 构造函数类型
type HandlerFactory func(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	service *train.TrainService,
) (framework.BusinessHandler, error)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]HandlerFactory{
	"train_pipeline": train.NewTrainHandler,

	// 未来扩展示例：
	// "score_customers": score.NewScoreHandler,
}

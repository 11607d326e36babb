package cost

import (
	"crp/dptrain/internal/business/ml"
	"crp/dptrain/pkg/errorutil"
)

// decisionThreshold 业务成本核算固定用 0.5 判决，与调参后的模型阈值无关
const decisionThreshold = 0.5

// Summary 误判成本核算结果
type Summary struct {
	Threshold      float64 `json:"threshold"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	CostPerFP      float64 `json:"cost_per_fp"`
	CostPerFN      float64 `json:"cost_per_fn"`
	TotalCost      float64 `json:"total_cost"`
}

// Evaluate 按固定阈值统计误报/漏报并折算业务成本
// 误报按白送激励计价，漏报按流失损失计价
func Evaluate(yTrue []int, prob []float64, costPerFP, costPerFN float64) (*Summary, error) {
	if len(yTrue) != len(prob) {
		return nil, errorutil.DataQuality("cost evaluation: %d labels but %d probabilities", len(yTrue), len(prob))
	}

	pred := ml.Threshold(prob, decisionThreshold)
	var fp, fn int
	for i := range yTrue {
		switch {
		case pred[i] == 1 && yTrue[i] == 0:
			fp++
		case pred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}

	return &Summary{
		Threshold:      decisionThreshold,
		FalsePositives: fp,
		FalseNegatives: fn,
		CostPerFP:      costPerFP,
		CostPerFN:      costPerFN,
		TotalCost:      float64(fp)*costPerFP + float64(fn)*costPerFN,
	}, nil
}

package segment

import (
	"math/rand"

	"crp/dptrain/internal/business/feature"
	"crp/dptrain/internal/business/ml"
	"crp/dptrain/pkg/errorutil"
)

// Model 客户分群模型（标准化器 + 胜出的 KMeans）
type Model struct {
	FeatureNames []string           `json:"feature_names"`
	Scaler       *ml.StandardScaler `json:"scaler"`
	KMeans       *ml.KMeans         `json:"kmeans"`
	K            int                `json:"k"`
	Silhouette   float64            `json:"silhouette"`

	// Scores 每个候选 k 的轮廓系数（调参留档）
	Scores map[int]float64 `json:"scores"`
}

// Trainer 分群训练器：在 [KMin, KMax] 内扫描簇数，按轮廓系数择优
type Trainer struct {
	KMin int
	KMax int
	Seed int64
}

// NewTrainer 创建训练器
func NewTrainer(kMin, kMax int, seed int64) *Trainer {
	return &Trainer{KMin: kMin, KMax: kMax, Seed: seed}
}

// Train 训练分群并把簇号写回特征记录
// 1. 标准化分群特征（不含购买跨度）
// 2. 逐 k 拟合 KMeans 并计算轮廓系数，严格大于才替换（并列取最小 k）
// 3. 用胜出模型的标签回填 Segment
func (t *Trainer) Train(features []feature.CustomerFeatures) (*Model, error) {
	if len(features) <= t.KMin {
		return nil, errorutil.DataQuality("segmentation needs more than %d customers, got %d", t.KMin, len(features))
	}

	X := make([][]float64, len(features))
	for i := range features {
		X[i] = features[i].SegmentVector()
	}

	scaler := ml.NewStandardScaler()
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, errorutil.DataQuality("segmentation scaling failed: %v", err)
	}

	best := &Model{
		FeatureNames: feature.SegmentFeatureNames,
		Scaler:       scaler,
		Silhouette:   -1,
		Scores:       make(map[int]float64),
	}
	var bestLabels []int

	for k := t.KMin; k <= t.KMax; k++ {
		if k >= len(features) {
			break
		}
		km := ml.NewKMeans(k)
		labels, err := km.FitPredict(Xs, rand.New(rand.NewSource(t.Seed)))
		if err != nil {
			return nil, errorutil.DataQuality("kmeans fit failed for k=%d: %v", k, err)
		}
		score, err := ml.SilhouetteScore(Xs, labels)
		if err != nil {
			continue
		}
		best.Scores[k] = score
		if score > best.Silhouette {
			best.KMeans = km
			best.K = k
			best.Silhouette = score
			bestLabels = labels
		}
	}

	if best.KMeans == nil {
		return nil, errorutil.DataQuality("no valid cluster count in [%d, %d] for %d customers", t.KMin, t.KMax, len(features))
	}

	for i := range features {
		features[i].Segment = bestLabels[i]
	}
	return best, nil
}

// Assign 用已训练模型给新特征记录分簇
func (m *Model) Assign(features []feature.CustomerFeatures) error {
	X := make([][]float64, len(features))
	for i := range features {
		X[i] = features[i].SegmentVector()
	}
	Xs, err := m.Scaler.Transform(X)
	if err != nil {
		return errorutil.DataQuality("segment assignment failed: %v", err)
	}
	labels := m.KMeans.Predict(Xs)
	for i := range features {
		features[i].Segment = labels[i]
	}
	return nil
}

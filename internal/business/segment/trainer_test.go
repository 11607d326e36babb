package segment

import (
	"testing"

	"crp/dptrain/internal/business/feature"
	"crp/dptrain/pkg/errorutil"
)

// threeGroups 三个画像差异明显的客群，每群 5 人
func threeGroups() []feature.CustomerFeatures {
	var out []feature.CustomerFeatures
	id := int64(1)
	add := func(recency float64, freq int, monetary float64) {
		for i := 0; i < 5; i++ {
			jitter := float64(i) * 0.1
			out = append(out, feature.CustomerFeatures{
				CustomerID:           id,
				RecencyDays:          recency + jitter,
				Frequency:            freq,
				Monetary:             monetary + jitter,
				AvgBasketValue:       monetary / float64(freq),
				UniqueProducts:       freq,
				AvgInterpurchaseDays: 10 + jitter,
			})
			id++
		}
	}
	add(5, 20, 5000)  // 高价值常客
	add(60, 3, 300)   // 普通客户
	add(300, 1, 20)   // 沉睡客户
	return out
}

func TestTrainFixedK(t *testing.T) {
	features := threeGroups()
	model, err := NewTrainer(3, 3, 42).Train(features)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if model.K != 3 {
		t.Fatalf("K = %d, want 3", model.K)
	}
	if len(model.Scores) != 1 {
		t.Fatalf("scores = %v, want single entry for k=3", model.Scores)
	}
	if model.Silhouette <= 0 {
		t.Fatalf("silhouette = %v, want > 0 for separated groups", model.Silhouette)
	}

	// 同群客户必须分到同一簇
	for g := 0; g < 3; g++ {
		base := features[g*5].Segment
		for i := 1; i < 5; i++ {
			if features[g*5+i].Segment != base {
				t.Fatalf("group %d split across clusters: %+v", g, features)
			}
		}
	}
}

func TestTrainScanPicksBestK(t *testing.T) {
	features := threeGroups()
	model, err := NewTrainer(2, 5, 42).Train(features)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if model.K != 3 {
		t.Fatalf("K = %d, want 3 for three natural groups", model.K)
	}
	for k := 2; k <= 5; k++ {
		if _, ok := model.Scores[k]; !ok {
			t.Fatalf("score for k=%d missing: %v", k, model.Scores)
		}
	}
}

func TestTrainDeterministic(t *testing.T) {
	fa := threeGroups()
	fb := threeGroups()

	ma, err := NewTrainer(2, 5, 7).Train(fa)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	mb, err := NewTrainer(2, 5, 7).Train(fb)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if ma.K != mb.K || ma.Silhouette != mb.Silhouette {
		t.Fatalf("same seed produced different models: k=%d/%d sil=%v/%v", ma.K, mb.K, ma.Silhouette, mb.Silhouette)
	}
	for i := range fa {
		if fa[i].Segment != fb[i].Segment {
			t.Fatalf("same seed produced different assignment at %d", i)
		}
	}
}

func TestTrainTooFewCustomers(t *testing.T) {
	features := threeGroups()[:3]
	_, err := NewTrainer(3, 8, 42).Train(features)
	if err == nil {
		t.Fatal("expected error for too few customers")
	}
	if errorutil.KindOf(err) != errorutil.KindDataQuality {
		t.Fatalf("kind = %v, want data_quality", errorutil.KindOf(err))
	}
}

func TestAssign(t *testing.T) {
	features := threeGroups()
	model, err := NewTrainer(3, 3, 42).Train(features)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// 同一批数据重新分簇应得到同样的标签
	fresh := threeGroups()
	if err := model.Assign(fresh); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	for i := range fresh {
		if fresh[i].Segment != features[i].Segment {
			t.Fatalf("assignment differs at %d: %d vs %d", i, fresh[i].Segment, features[i].Segment)
		}
	}
}

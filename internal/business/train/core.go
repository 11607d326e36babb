package train

import (
	"context"
	"errors"
	"time"
)

// PreProcess 预处理
func (h *TrainHandler) PreProcess(ctx context.Context) error {
	if h.payload.DatasetCSV == "" && h.payload.DatasetTable == "" {
		return errors.New("dataset_csv or dataset_table is required")
	}

	if h.payload.DatasetCSV != "" && h.payload.DatasetTable != "" {
		return errors.New("dataset_csv and dataset_table are mutually exclusive")
	}

	if h.service == nil {
		return errors.New("train service is not configured")
	}

	return nil
}

// Process 核心处理
func (h *TrainHandler) Process(ctx context.Context) error {
	meta := h.GetMeta()
	input := &TrainInput{
		RequestID: meta.RequestID,
		RunID:     meta.ID,
		OrgID:     meta.OrgID,
		Payload:   h.payload,
	}

	result, err := h.service.ExecuteTraining(ctx, input)
	if err != nil {
		return err
	}

	h.result = &TrainResultData{
		RunID:       result.RunID,
		Status:      StatusCompleted,
		Metrics:     result.Metrics,
		ProcessedAt: time.Now().Unix(),
	}

	return nil
}

// PostProcess 后处理
func (h *TrainHandler) PostProcess(ctx context.Context) error {
	if err := h.GetResulter().Set(ctx, h.result); err != nil {
		return err
	}

	output := h.GetResulter().Get(ctx)
	h.SetOutput(output)

	return nil
}

// Package adapters はflowchartフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowchart_backend/internal/feature/flowchart/domain"
	"flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/feature/flowchart/usecase"
)

// flowChartGorm はFlowChartRepositoryのgorm実装です。すべてのクエリは所有者で絞り込みます。
type flowChartGorm struct {
	db *gorm.DB
}

var _ usecase.FlowChartRepository = (*flowChartGorm)(nil)

// NewFlowChartGorm は指定されたgorm.DB接続でflowChartGormの新しいインスタンスを生成します。
func NewFlowChartGorm(db *gorm.DB) *flowChartGorm {
	return &flowChartGorm{db: db}
}

// Create はフローチャートを保存し、IDと作成日時を設定します。
func (r *flowChartGorm) Create(ctx context.Context, f *entity.FlowChart) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// FindByID は所有者のフローチャートを取得します。
func (r *flowChartGorm) FindByID(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error) {
	var f entity.FlowChart
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFlowChartNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListByOwner は所有者のフローチャートを新しい順に返します。
func (r *flowChartGorm) ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error) {
	var out []entity.FlowChart
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDiagram はダイアグラム文字列のみを置き換えます。
func (r *flowChartGorm) UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.FlowChart{}).
		Where("id = ? AND user_id = ?", id, owner).
		Updates(map[string]any{"mermaid_string": diagram, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrFlowChartNotFound
	}
	return r.FindByID(ctx, owner, id)
}

// Delete は所有者のフローチャートを削除します。
func (r *flowChartGorm) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		Delete(&entity.FlowChart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrFlowChartNotFound
	}
	return nil
}

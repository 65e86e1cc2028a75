// Package usecase はflowchartフィーチャーのビジネスロジックを実装します。
// 生成リクエストは 入力検証 → 入力解決 → 生成 → 抽出 → 保存 の順に処理されます。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"flowchart_backend/internal/feature/flowchart/domain"
	"flowchart_backend/internal/feature/flowchart/domain/entity"
	gendomain "flowchart_backend/internal/feature/generation/domain"
)

// FlowChartRepository はフローチャートの永続化層を抽象化します。
// すべての操作は所有者で絞り込まれ、他ユーザーのレコードは存在しないものとして扱われます。
type FlowChartRepository interface {
	Create(ctx context.Context, f *entity.FlowChart) error
	FindByID(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error)
	UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}

// Gateway は外部の文字起こし・生成サービスへの窓口です。
type Gateway interface {
	Supports(model string) bool
	ResolveSubject(ctx context.Context, credential, contentType string, data []byte) (string, error)
	Generate(ctx context.Context, credential, model, subject string) (string, error)
}

// Extractor は生成結果からダイアグラムを取り出します。
type Extractor interface {
	Extract(raw string) string
}

// OwnerChecker は所有者となるユーザーの存在を確認します。
type OwnerChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// SourceStore はアップロードされた元ファイルを保存します。
type SourceStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// SourceFile はアップロードされたファイルです。
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateInput は生成リクエストの入力です。Text と File はどちらか一方のみ指定します。
type CreateInput struct {
	Owner       uuid.UUID
	Credential  string
	InputMethod string
	AIModel     string
	Text        string
	File        *SourceFile
}

type flowChartUsecase struct {
	repo      FlowChartRepository
	gateway   Gateway
	extractor Extractor
	owners    OwnerChecker
	store     SourceStore
}

// NewFlowChartUsecase は flowChartUsecase を生成します。store が nil の場合、元ファイルは保存しません。
func NewFlowChartUsecase(repo FlowChartRepository, gateway Gateway, extractor Extractor, owners OwnerChecker, store SourceStore) *flowChartUsecase {
	return &flowChartUsecase{
		repo:      repo,
		gateway:   gateway,
		extractor: extractor,
		owners:    owners,
		store:     store,
	}
}

// validate は外部サービスに問い合わせる前に行う入力検証です。
func (u *flowChartUsecase) validate(in CreateInput) error {
	if in.Credential == "" {
		return gendomain.ErrMissingCredential
	}

	hasText := strings.TrimSpace(in.Text) != ""
	hasFile := in.File != nil
	switch {
	case hasText && hasFile:
		return domain.ErrAmbiguousInput
	case !hasText && !hasFile:
		return domain.ErrMissingInput
	}

	if !u.gateway.Supports(in.AIModel) {
		return fmt.Errorf("%w: %q", gendomain.ErrUnknownModel, in.AIModel)
	}
	if !domain.InputMethod(in.InputMethod).Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidInputMethod, in.InputMethod)
	}
	return nil
}

// Create は入力からフローチャートを生成して保存します。
// 生成が完了するまで元ファイルの保存とレコードの書き込みは行いません。
func (u *flowChartUsecase) Create(ctx context.Context, in CreateInput) (*entity.FlowChart, error) {
	if err := u.validate(in); err != nil {
		return nil, err
	}

	ok, err := u.owners.Exists(ctx, in.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to check owner: %w", err)
	}
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}

	subject := in.Text
	if in.File != nil {
		subject, err = u.gateway.ResolveSubject(ctx, in.Credential, in.File.ContentType, in.File.Data)
		if err != nil {
			return nil, err
		}
	}

	raw, err := u.gateway.Generate(ctx, in.Credential, in.AIModel, subject)
	if err != nil {
		return nil, err
	}
	diagram := u.extractor.Extract(raw)

	f := &entity.FlowChart{
		UserID:        in.Owner,
		InputMethod:   in.InputMethod,
		AIModel:       in.AIModel,
		InputText:     in.Text,
		MermaidString: diagram,
	}

	if in.File != nil && u.store != nil {
		key := sourceKey(in.Owner, in.File.Name)
		if err := u.store.Upload(ctx, key, in.File.ContentType, in.File.Data); err != nil {
			return nil, fmt.Errorf("failed to store source file: %w", err)
		}
		f.SourceFileKey = key
	}

	if err := u.repo.Create(ctx, f); err != nil {
		if f.SourceFileKey != "" {
			u.removeSource(ctx, f.SourceFileKey)
		}
		return nil, fmt.Errorf("failed to save flowchart: %w", err)
	}

	slog.Info("flowchart created", "id", f.ID, "user_id", in.Owner, "ai_model", in.AIModel)
	return f, nil
}

// List は所有者のフローチャートを新しい順に返します。
func (u *flowChartUsecase) List(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error) {
	return u.repo.ListByOwner(ctx, owner)
}

// Get は所有者のフローチャートを1件返します。
func (u *flowChartUsecase) Get(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error) {
	return u.repo.FindByID(ctx, owner, id)
}

// UpdateDiagram はダイアグラム文字列を置き換えます。同時更新は後勝ちです。
func (u *flowChartUsecase) UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error) {
	if strings.TrimSpace(diagram) == "" {
		return nil, domain.ErrMissingDiagram
	}
	return u.repo.UpdateDiagram(ctx, owner, id, diagram)
}

// Delete はフローチャートを削除し、元ファイルがあればベストエフォートで削除します。
func (u *flowChartUsecase) Delete(ctx context.Context, owner, id uuid.UUID) error {
	f, err := u.repo.FindByID(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	if f.SourceFileKey != "" {
		u.removeSource(ctx, f.SourceFileKey)
	}
	return nil
}

func (u *flowChartUsecase) removeSource(ctx context.Context, key string) {
	if u.store == nil {
		return
	}
	if err := u.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("failed to delete source file", "key", key, "error", err)
	}
}

// sourceKey はオブジェクトストレージのキーを所有者ごとに生成します。
func sourceKey(owner uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s%s", owner, uuid.NewString(), strings.ToLower(path.Ext(filename)))
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/db"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

// Service defines the behavior needed by the catalog controller.
type Service interface {
	ListProductCodes(ctx context.Context) ([]ProductCodeDTO, error)
	CreateProductCode(ctx context.Context, actor *permissions.Identity, req CreateProductCodeRequest) (*ProductCodeDTO, error)
	UpdateProductCode(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateProductCodeRequest) (*ProductCodeDTO, error)
	DeleteProductCode(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, actor *permissions.Identity, req CreateCategoryRequest) (*CategoryDTO, error)
	RenameCategory(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req RenameCategoryRequest) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx       transactor
	repo     *Repository
	recorder *history.Recorder
	changes  *outbox.Service
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Tx       transactor
	Repo     *Repository
	Recorder *history.Recorder
	Changes  *outbox.Service
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("history recorder is required")
	}
	if params.Changes == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		recorder: params.Recorder,
		changes:  params.Changes,
	}, nil
}

func (s *service) ListProductCodes(ctx context.Context) ([]ProductCodeDTO, error) {
	codes, err := s.repo.ListCodes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product codes")
	}
	return CodesFromModels(codes), nil
}

func (s *service) CreateProductCode(ctx context.Context, actor *permissions.Identity, req CreateProductCodeRequest) (*ProductCodeDTO, error) {
	code := &models.ProductCode{
		ID:          uuid.New(),
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
	}
	if code.Code == "" || code.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and name are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateCodeTx(tx, code); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityCreate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("added product code %s (%s)", code.Code, code.Name),
			Details: map[string]string{"product_code_id": code.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableProductCodes,
			Action:   enums.ChangeInsert,
			EntityID: code.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product code")
	}
	return codeFromModel(code), nil
}

func (s *service) UpdateProductCode(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateProductCodeRequest) (*ProductCodeDTO, error) {
	code, err := s.findCode(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		value := strings.TrimSpace(*req.Code)
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "code cannot be empty")
		}
		code.Code = value
	}
	if req.Name != nil {
		value := strings.TrimSpace(*req.Name)
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		code.Name = value
	}
	if req.Description != nil {
		code.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		code.Category = strings.TrimSpace(*req.Category)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SaveCodeTx(tx, code); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("updated product code %s", code.Code),
			Details: map[string]string{"product_code_id": code.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableProductCodes,
			Action:   enums.ChangeUpdate,
			EntityID: code.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product code")
	}
	return codeFromModel(code), nil
}

func (s *service) DeleteProductCode(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error {
	code, err := s.findCode(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.DeleteCodeTx(tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityDelete,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("deleted product code %s", code.Code),
			Details: map[string]string{"product_code_id": id.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableProductCodes,
			Action:   enums.ChangeDelete,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product code")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return CategoriesFromModels(categories), nil
}

func (s *service) CreateCategory(ctx context.Context, actor *permissions.Identity, req CreateCategoryRequest) (*CategoryDTO, error) {
	category := &models.Category{
		ID:   uuid.New(),
		Name: strings.TrimSpace(req.Name),
	}
	if category.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateCategoryTx(tx, category); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityCreate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("added category %s", category.Name),
			Details: map[string]string{"category_id": category.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableCategories,
			Action:   enums.ChangeInsert,
			EntityID: category.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category %s already exists", category.Name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return categoryFromModel(category), nil
}

// RenameCategory renames the category and retags every product code
// referencing the old name in the same transaction.
func (s *service) RenameCategory(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req RenameCategoryRequest) (*CategoryDTO, error) {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if name == category.Name {
		return categoryFromModel(category), nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.RenameCategoryTx(tx, id, name); err != nil {
			return err
		}
		retagged, err := s.repo.RetagCodesTx(tx, category.Name, name)
		if err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("renamed category %s to %s", category.Name, name),
			Details: map[string]any{"category_id": id.String(), "retagged_codes": retagged},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableCategories,
			Action:   enums.ChangeUpdate,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "category %s already exists", name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rename category")
	}
	category.Name = name
	return categoryFromModel(category), nil
}

// DeleteCategory removes the category and clears the category tag of every
// product code referencing it by name, atomically.
func (s *service) DeleteCategory(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.DeleteCategoryTx(tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		cleared, err := s.repo.RetagCodesTx(tx, category.Name, "")
		if err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityDelete,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("deleted category %s", category.Name),
			Details: map[string]any{"category_id": id.String(), "cleared_codes": cleared},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableCategories,
			Action:   enums.ChangeDelete,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}
	return nil
}

func (s *service) findCode(ctx context.Context, id uuid.UUID) (*models.ProductCode, error) {
	code, err := s.repo.FindCodeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup product code")
	}
	return code, nil
}

func (s *service) findCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	return category, nil
}

func actorOf(identity *permissions.Identity) history.Actor {
	return history.ActorFrom(identity)
}

func actorRef(identity *permissions.Identity) *outbox.ActorRef {
	if identity == nil {
		return nil
	}
	return outbox.ActorRefFrom(identity.UserID, string(identity.Role))
}

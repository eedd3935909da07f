package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
	"github.com/coldrackhq/coldrack-backend/pkg/security"
)

const tempPasswordLength = 16

// Service defines the behavior needed by the users controller.
type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Create(ctx context.Context, actor *permissions.Identity, req CreateUserRequest) (*UserDTO, error)
	Update(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error)
	Delete(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error
	ResetPassword(ctx context.Context, actor *permissions.Identity, id uuid.UUID) (*ResetPasswordResponse, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx          transactor
	repo        *Repository
	recorder    *history.Recorder
	changes     *outbox.Service
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Tx             transactor
	Repo           *Repository
	Recorder       *history.Recorder
	Changes        *outbox.Service
	PasswordConfig config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("history recorder is required")
	}
	if params.Changes == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		recorder:    params.Recorder,
		changes:     params.Changes,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(users), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, actor *permissions.Identity, req CreateUserRequest) (*UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", req.Role)
	}
	if err := permissions.ValidateGrants(req.Grants); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid grants")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Grants:       req.Grants.Normalized(),
		IsActive:     isActive,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, user); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityCreate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("created user %s", user.Email),
			Details: map[string]string{"user_id": user.ID.String(), "role": string(user.Role)},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableUsers,
			Action:   enums.ChangeInsert,
			EntityID: user.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "email %s already registered", user.Email)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor *permissions.Identity, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.Grants != nil {
		if err := permissions.ValidateGrants(*req.Grants); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid grants")
		}
		user.Grants = req.Grants.Normalized()
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = name
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SaveTx(tx, user); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("updated user %s", user.Email),
			Details: map[string]string{"user_id": user.ID.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableUsers,
			Action:   enums.ChangeUpdate,
			EntityID: user.ID,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, actor *permissions.Identity, id uuid.UUID) error {
	if actor != nil && actor.UserID == id {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete the signed-in account")
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.DeleteTx(tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityDelete,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("deleted user %s", user.Email),
			Details: map[string]string{"user_id": id.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableUsers,
			Action:   enums.ChangeDelete,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, actor *permissions.Identity, id uuid.UUID) (*ResetPasswordResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	temp, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(temp, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temp password")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdatePasswordTx(tx, id, hash); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, history.Entry{
			Type:    enums.ActivityUpdate,
			Actor:   actorOf(actor),
			Summary: fmt.Sprintf("reset password for %s", user.Email),
			Details: map[string]string{"user_id": id.String()},
		}); err != nil {
			return err
		}
		return s.changes.Emit(ctx, tx, outbox.Change{
			Table:    enums.TableUsers,
			Action:   enums.ChangeUpdate,
			EntityID: id,
			Actor:    actorRef(actor),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset password")
	}
	return &ResetPasswordResponse{TempPassword: temp}, nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
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

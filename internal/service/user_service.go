package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailExists     = fmt.Errorf("email %w", ErrConflict)
	ErrRoleNotFound    = fmt.Errorf("role %w", ErrNotFound)
	ErrLastMasterAdmin = errors.New("cannot remove the last master admin")
)

type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error
	UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error)
	ListUsers(ctx context.Context, params model.ListParams) ([]model.UserResponse, model.Pagination, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	ListPrivileges(ctx context.Context) ([]model.Privilege, error)
	// EnsureMasterAdmin creates the bootstrap account when no master admin exists.
	EnsureMasterAdmin(ctx context.Context, email, password string) (bool, error)
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
	RoleID      uint    `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date"`
	RoleID      uint    `json:"role_id" validate:"required"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	hub           *ws.Hub
	log           *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, hub *ws.Hub, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		hub:           hub,
		log:           log.Named("user"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest, actor Actor) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if existing, _ := s.userRepo.FindByEmail(ctx, req.Email); existing != nil {
		return nil, ErrEmailExists
	}
	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		SoftDelete:  model.SoftDelete{Active: true},
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		BirthDate:   birthDate,
		RoleID:      &role.ID,
		Privileges:  role.Privileges,
	}
	user.CreatedBy = actor.ID
	user.UpdatedBy = actor.ID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role.Code), zap.String("actor", actor.ID))
	return s.userRepo.FindByID(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, ErrUserNotFound
	}
	if req.Email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(ctx, req.Email); existing != nil {
			return nil, ErrEmailExists
		}
	}
	role, err := s.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	roleChanged := user.RoleID == nil || *user.RoleID != role.ID
	if roleChanged && user.RoleCode() == model.RoleMasterAdmin {
		if err := s.guardLastMaster(ctx); err != nil {
			return nil, err
		}
	}

	user.Email = req.Email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.BirthDate = birthDate
	user.RoleID = &role.ID
	user.UpdatedBy = actor.ID
	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fromRepo(err, "user "+userID.String())
	}

	if roleChanged {
		if err := s.userRepo.UpdatePrivileges(ctx, userID, role.Privileges); err != nil {
			return nil, err
		}
		if err := s.forceLogout(ctx, userID, "role changed"); err != nil {
			return nil, err
		}
	}
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID, actor Actor) error {
	if actor.ID == userID.String() {
		return validationFailed("you cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return ErrUserNotFound
	}
	if user.RoleCode() == model.RoleMasterAdmin {
		if err := s.guardLastMaster(ctx); err != nil {
			return err
		}
	}
	if err := s.userRepo.SoftDelete(ctx, userID, actor.ID, time.Now()); err != nil {
		return fromRepo(err, "user "+userID.String())
	}
	s.log.Info("user deactivated", zap.String("user_id", userID.String()), zap.String("actor", actor.ID))
	return s.forceLogout(ctx, userID, "account deactivated")
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, userID uuid.UUID, privilegeCodes []string, actor Actor) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, ErrUserNotFound
	}

	privileges, err := s.privilegeRepo.FindByCodes(ctx, privilegeCodes)
	if err != nil {
		return nil, err
	}
	if len(privileges) != len(dedupe(privilegeCodes)) {
		return nil, validationFailed("unknown privilege code")
	}
	if err := s.userRepo.UpdatePrivileges(ctx, userID, privileges); err != nil {
		return nil, err
	}

	user.UpdatedBy = actor.ID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.forceLogout(ctx, userID, "privileges changed"); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, params model.ListParams) ([]model.UserResponse, model.Pagination, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, model.NewPagination(params, total), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.roleRepo.FindAll(ctx)
}

func (s *userService) ListPrivileges(ctx context.Context) ([]model.Privilege, error) {
	return s.privilegeRepo.FindAll(ctx)
}

func (s *userService) EnsureMasterAdmin(ctx context.Context, email, password string) (bool, error) {
	count, err := s.userRepo.CountByRole(ctx, model.RoleMasterAdmin)
	if err != nil || count > 0 {
		return false, err
	}
	role, err := s.roleRepo.FindByCode(ctx, model.RoleMasterAdmin)
	if err != nil {
		return false, fmt.Errorf("master admin role missing: %w", err)
	}

	user := &model.User{
		SoftDelete: model.SoftDelete{Active: true},
		Email:      email,
		FullName:   "Master Admin",
		RoleID:     &role.ID,
		Privileges: role.Privileges,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, err
	}
	s.log.Info("master admin created", zap.String("email", email))
	return true, nil
}

func (s *userService) guardLastMaster(ctx context.Context) error {
	count, err := s.userRepo.CountByRole(ctx, model.RoleMasterAdmin)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastMasterAdmin
	}
	return nil
}

// forceLogout ends the user's session so the next request re-authenticates with fresh privileges.
func (s *userService) forceLogout(ctx context.Context, userID uuid.UUID, reason string) error {
	if err := s.userRepo.UpdateTokenVersion(ctx, userID, ""); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.hub.Publish(ws.EventForceLogout, map[string]any{
		"user_id": userID.String(),
		"reason":  reason,
	})
	return nil
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, validationFailed("invalid birth_date format, use YYYY-MM-DD")
	}
	return &parsed, nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := codes[:0:0]
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

package auth

import (
	"context"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/internal/users"
	"github.com/angelmondragon/inventory-backend/pkg/config"
	"github.com/angelmondragon/inventory-backend/pkg/db"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/security"
)

const maxUsernameLength = 150

// RegisterService creates operator accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register validates the form and stores the account. The first account ever
// registered becomes an admin; everyone after that starts as staff.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	fields := map[string]string{}
	if msg := checkUsername(username); msg != "" {
		fields["username"] = msg
	}
	if email == "" {
		fields["email"] = "email is required"
	}
	if req.Password != req.PasswordConfirm {
		fields["password_confirm"] = "passwords do not match"
	} else if problems := security.CheckPasswordPolicy(req.Password, username, email); len(problems) > 0 {
		fields["password"] = strings.Join(problems, "; ")
	}
	if len(fields) > 0 {
		return nil, pkgerrors.Validation("invalid registration", fields)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		usernameTaken, emailTaken, err := userRepo.Taken(ctx, username, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing accounts")
		}
		if usernameTaken || emailTaken {
			details := map[string]string{}
			if usernameTaken {
				details["username"] = "username already registered"
			}
			if emailTaken {
				details["email"] = "email already registered"
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "account already exists").WithDetails(details)
		}

		existing, err := userRepo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
		}
		role := enums.UserRoleStaff
		if existing == 0 {
			role = enums.UserRoleAdmin
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// checkUsername applies the classic account rules: up to 150 characters of
// letters, digits and @ . + - _.
func checkUsername(username string) string {
	if username == "" {
		return "username is required"
	}
	if len([]rune(username)) > maxUsernameLength {
		return "username must be at most 150 characters"
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return "username may contain only letters, digits and @/./+/-/_"
	}
	return ""
}

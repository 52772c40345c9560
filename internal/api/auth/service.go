package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CustomerCreator opens a payment-provider customer for a new account.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
}

type Service struct {
	db            *gorm.DB
	customers     CustomerCreator
	secret        string
	defaultPlanID string
	logger        *zap.Logger
	now           func() time.Time
}

func NewService(db *gorm.DB, customers CustomerCreator, secret, defaultPlanID string, l *zap.Logger) *Service {
	return &Service{
		db:            db,
		customers:     customers,
		secret:        secret,
		defaultPlanID: defaultPlanID,
		logger:        logger.OrNop(l),
		now:           time.Now,
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by every sign-in path.
type Session struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Role  string `json:"role"`
}

func (s *Service) session(user *users.User) (*Session, error) {
	token, err := IssueToken(user, s.secret, s.now())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Could not create token", err)
	}
	return &Session{
		Token: token,
		User: SessionUser{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Image: user.Image,
			Role:  user.Role,
		},
	}, nil
}

// Register creates a credentials account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if !isEmailValid(email) {
		return nil, apperr.Validation("Invalid email format")
	}
	if !isPasswordStrong(in.Password) {
		return nil, apperr.Validation("Password must be at least 8 characters long and contain both letters and numbers")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "check email", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to hash password", err)
	}
	hash := string(hashed)

	user := &users.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Password:     &hash,
		AuthProvider: users.ProviderCredentials,
		Role:         users.RoleUser,
	}
	if err := s.provision(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	var user users.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	if user.Password == nil || *user.Password == "" {
		return nil, apperr.Unauthorized("This account uses Google sign-in")
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return s.session(&user)
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// SocialSignIn finds the account by Google subject, then by email (linking
// it), and otherwise provisions a new one. Only a verified Google email links
// to an account that has no Google subject yet.
func (s *Service) SocialSignIn(ctx context.Context, id GoogleIdentity) (*Session, error) {
	if id.Sub == "" || id.Email == "" {
		return nil, apperr.Unauthorized("google account has no email")
	}
	db := s.db.WithContext(ctx)
	email := strings.ToLower(id.Email)

	var user users.User
	err := db.Where("google_sub = ?", id.Sub).First(&user).Error
	if err == nil {
		return s.session(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	err = db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if !id.EmailVerified {
			return nil, apperr.Unauthorized("Google email is not verified")
		}
		if user.GoogleSub != nil {
			return nil, apperr.Conflict("Email is linked to another Google account")
		}
		updates := map[string]interface{}{"google_sub": id.Sub}
		if user.Image == "" && id.Picture != "" {
			updates["image"] = id.Picture
		}
		res := db.Model(&users.User{}).Where("id = ? AND google_sub IS NULL", user.ID).Updates(updates)
		if res.Error != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "link google account", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperr.Conflict("Email is linked to another Google account")
		}
		sub := id.Sub
		user.GoogleSub = &sub
		if img, ok := updates["image"].(string); ok {
			user.Image = img
		}
		return s.session(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	sub := id.Sub
	user = users.User{
		ID:           uuid.NewString(),
		Name:         id.Name,
		Email:        email,
		Image:        id.Picture,
		AuthProvider: users.ProviderGoogle,
		GoogleSub:    &sub,
		Role:         users.RoleUser,
	}
	if err := s.provision(ctx, &user); err != nil {
		return nil, err
	}
	return s.session(&user)
}

// provision stores a new user together with an active subscription on the
// default plan. The payment customer is created first; its failure only
// leaves the subscription without a customer.
func (s *Service) provision(ctx context.Context, user *users.User) error {
	customerID := ""
	if s.customers != nil {
		id, err := s.customers.CreateCustomer(ctx, user.Email, user.Name, user.ID)
		if err != nil {
			s.logger.Warn("payment customer not created",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		} else {
			customerID = id
		}
	}

	now := s.now()
	sub := &subscriptions.Subscription{
		UserID:             user.ID,
		StripeCustomerID:   customerID,
		PlanID:             s.defaultPlanID,
		Status:             subscriptions.StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(sub).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, "Email already registered", err)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "create account", err)
	}

	s.logger.Info("account created",
		zap.String("user_id", user.ID),
		zap.String("provider", user.AuthProvider),
		zap.String("plan_id", sub.PlanID),
	)
	return nil
}

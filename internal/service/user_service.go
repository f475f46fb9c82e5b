package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomorunn/zisaku/internal/domain"
	"github.com/tomorunn/zisaku/internal/infrastructure"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// accountClaims is the JWT payload for both token kinds. Type keeps a
// refresh token from ever passing as an access token.
type accountClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful signup, login or refresh hands back
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserService owns accounts and the tokens that authenticate them.
// Usernames double as the standings identity, so they are unique and
// immutable once registered.
type UserService struct {
	userRepo  domain.UserRepository
	jwtConfig *infrastructure.JWTConfig
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo domain.UserRepository,
	jwtConfig *infrastructure.JWTConfig,
	tracer trace.Tracer,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtConfig: jwtConfig,
		tracer:    tracer,
		logger:    logger,
	}
}

// Register creates an account and signs the caller straight in
func (s *UserService) Register(ctx context.Context, req *domain.UserCreateRequest) (*domain.User, *TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()

	span.SetAttributes(attribute.String("user.email", req.Email))

	if err := s.checkAvailable(req.Email, req.Username); err != nil {
		return nil, nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, nil, domain.ErrInternalServer
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(passwordHash),
	}
	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, tokens, nil
}

// checkAvailable rejects a signup when either identity is taken. The
// database's unique indexes still back this up against races.
func (s *UserService) checkAvailable(email, username string) error {
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return domain.ErrUserAlreadyExists
	} else if err != domain.ErrUserNotFound {
		return err
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return domain.ErrUserAlreadyExists
	} else if err != domain.ErrUserNotFound {
		return err
	}
	return nil
}

// Login exchanges credentials for a token pair. Unknown email and wrong
// password collapse into the same error so the response never leaks which
// accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login")
	defer span.End()

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, tokens, nil
}

// RefreshToken trades a valid refresh token for a fresh pair
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.RefreshToken")
	defer span.End()

	userID, err := s.subjectOf(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	// The account must still exist; tokens outlive nothing.
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return s.issueTokens(user)
}

// GetUserByID retrieves a user by their ID
func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetUserByID")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id.String()))
	return s.userRepo.FindByID(id)
}

// ValidateAccessToken resolves an access token to the user it was issued
// to. Satisfies middleware.TokenValidator.
func (s *UserService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	return s.subjectOf(tokenString, tokenTypeAccess)
}

// subjectOf parses and verifies a token of the expected kind and returns
// the user id it was issued to
func (s *UserService) subjectOf(tokenString, expectedType string) (uuid.UUID, error) {
	claims := &accountClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) {
			return []byte(s.jwtConfig.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtConfig.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Type != expectedType {
		return uuid.Nil, domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return userID, nil
}

// issueTokens signs a fresh access/refresh pair for the user
func (s *UserService) issueTokens(user *domain.User) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(s.jwtConfig.AccessTokenExpiry)

	accessToken, err := s.signToken(user, tokenTypeAccess, now, accessExpiry)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signToken(user, tokenTypeRefresh, now, now.Add(s.jwtConfig.RefreshTokenExpiry))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiry,
	}, nil
}

func (s *UserService) signToken(user *domain.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := accountClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtConfig.SecretKey))
}

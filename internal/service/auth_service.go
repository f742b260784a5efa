package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"capriccio/internal/auth"
	"capriccio/internal/config"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// authService implements AuthService.
type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.Tokens
	guard    SessionGuard
	cfg      config.AuthConfig
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.Tokens,
	guard SessionGuard,
	cfg config.AuthConfig,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		guard:    guard,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// SignInAnonymous issues a session for a fresh anonymous identity.
func (s *authService) SignInAnonymous(ctx context.Context) (*model.Session, error) {
	identity := model.Identity{UserID: uuid.NewString(), Role: model.RoleUser, Anonymous: true}
	return s.issue(ctx, identity, nil)
}

// Login verifies email and password.
func (s *authService) Login(ctx context.Context, req model.LoginRequest, admin bool) (*model.Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Var("email", email, "required,email", model.ErrInvalidEmail.Message); err != nil {
		return nil, model.ErrInvalidEmail
	}
	if req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	scope := "login:" + email
	allowed, err := s.guard.AllowAttempt(ctx, scope, int64(s.cfg.LoginRateLimit), s.cfg.LoginRateWindow)
	if err != nil {
		s.logger.Error().Err(err).Msg("rate limiter unavailable")
		return nil, fmt.Errorf("failed to check sign-in attempts: %w", err)
	}
	if !allowed {
		s.logger.Warn().Str("email", email).Msg("sign-in rate limit exceeded")
		return nil, model.ErrTooManyRequests
	}

	cred, err := s.userRepo.GetCredentialByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load credential")
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return nil, model.ErrInvalidCredentials
	}
	if cred.Disabled {
		return nil, model.ErrAccountDisabled
	}

	ok, err := auth.VerifyPassword(req.Password, cred.PasswordHash)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", cred.UserID).Msg("stored password hash is unreadable")
		return nil, model.ErrInvalidCredentials
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	if err := s.guard.ResetAttempts(ctx, scope); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset sign-in attempts")
	}

	profile, notes := s.ensureProfile(ctx, cred.UserID)
	if admin && profile.Role != model.RoleAdmin {
		s.logger.Warn().Str("user_id", cred.UserID).Msg("admin sign-in denied")
		return nil, model.ErrNotAdmin
	}

	if admin {
		notes = append(notes, model.NewNotification(model.LevelSuccess,
			"¡Inicio de sesión de administrador exitoso! ¡Bienvenido!", 4*time.Second))
	}

	session, err := s.mint(model.Identity{UserID: cred.UserID, Role: profile.Role}, profile, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", cred.UserID).Str("role", string(profile.Role)).Msg("signed in")
	return session, nil
}

// SignInWithToken exchanges an externally signed token for a session. A
// rejected token yields an anonymous session with an error notification.
func (s *authService) SignInWithToken(ctx context.Context, req model.CustomTokenRequest) (*model.Session, error) {
	subject, err := s.tokens.VerifyCustomToken(req.Token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("custom token rejected, falling back to anonymous")
		identity := model.Identity{UserID: uuid.NewString(), Role: model.RoleUser, Anonymous: true}
		return s.issue(ctx, identity, []model.Notification{
			model.NewNotification(model.LevelError,
				"Error de autenticación con token. Algunas funciones pueden estar limitadas.", 0),
		})
	}

	return s.issue(ctx, model.Identity{UserID: subject, Role: model.RoleUser}, nil)
}

// SignOut revokes the session token until it would have expired.
func (s *authService) SignOut(ctx context.Context, identity model.Identity) (model.Notification, error) {
	if err := s.guard.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to revoke session")
		return model.NewNotification(model.LevelError, "Error al cerrar sesión.", 0),
			fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info().Str("user_id", identity.UserID).Msg("signed out")
	return model.NewNotification(model.LevelInfo, "Sesión cerrada.", 0), nil
}

// Me returns the identity and profile of the current session.
func (s *authService) Me(ctx context.Context, identity model.Identity) (*model.Session, error) {
	profile, notes := s.ensureProfile(ctx, identity.UserID)
	return &model.Session{
		ExpiresAt:     identity.ExpiresAt,
		Identity:      identity,
		Profile:       profile,
		Notifications: notes,
	}, nil
}

// Authenticate verifies a bearer token and rejects revoked sessions.
func (s *authService) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return model.Identity{}, err
	}

	revoked, err := s.guard.IsRevoked(ctx, identity.TokenID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check revocation")
		return model.Identity{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return model.Identity{}, model.ErrUnauthorised
	}

	return identity, nil
}

// issue loads the profile of identity and mints its session. The stored
// role wins over the requested one.
func (s *authService) issue(ctx context.Context, identity model.Identity, notes []model.Notification) (*model.Session, error) {
	profile, profileNotes := s.ensureProfile(ctx, identity.UserID)
	identity.Role = profile.Role
	return s.mint(identity, profile, append(notes, profileNotes...))
}

func (s *authService) mint(identity model.Identity, profile model.UserProfile, notes []model.Notification) (*model.Session, error) {
	token, identity, err := s.tokens.Mint(s.now(), identity)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to mint session token")
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}

	return &model.Session{
		Token:         token,
		ExpiresAt:     identity.ExpiresAt,
		Identity:      identity,
		Profile:       profile,
		Notifications: notes,
	}, nil
}

// ensureProfile returns the stored profile, creating it with the user role
// on first sight. Backend failures yield a local, unsaved profile plus a
// notification describing the failure.
func (s *authService) ensureProfile(ctx context.Context, userID string) (model.UserProfile, []model.Notification) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err == nil && profile == nil {
		profile, err = s.userRepo.CreateProfile(ctx, &model.UserProfile{
			ID:        userID,
			Role:      model.RoleUser,
			CreatedAt: s.now().UTC(),
		})
	}
	if err == nil && profile != nil {
		return *profile, nil
	}

	local := model.UserProfile{ID: userID, Role: model.RoleUser, CreatedAt: s.now().UTC()}
	if err == nil {
		return local, nil
	}

	category := model.CategoryOf(err)
	s.logger.Warn().Err(err).Str("user_id", userID).Str("category", string(category)).Msg("using local profile")

	var n model.Notification
	switch category {
	case model.PersistencePermission:
		n = model.NewNotification(model.LevelError,
			"Error de permisos al cargar/crear perfil. Consulta las reglas de seguridad.", 10*time.Second)
	case model.PersistenceUnavailable:
		n = model.NewNotification(model.LevelWarning,
			"Error de sincronización de autenticación. Por favor, recarga la página o inténtalo de nuevo.", 7*time.Second)
	default:
		n = model.NewNotification(model.LevelError,
			fmt.Sprintf("Error desconocido al cargar/crear perfil: %v", err), 8*time.Second)
	}
	return local, []model.Notification{n}
}

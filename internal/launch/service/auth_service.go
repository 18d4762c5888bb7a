package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/config"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/directory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenStore remembers issued refresh tokens by jti
type TokenStore interface {
	Save(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Take returns the user id for jti and forgets it. Unknown ids yield ErrInvalidToken.
	Take(ctx context.Context, jti string) (string, error)
}

// RedisTokenStore keeps refresh tokens in redis
type RedisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore creates a RedisTokenStore
func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func refreshKey(jti string) string {
	return "token:refresh:" + jti
}

// Save stores jti with a TTL
func (s *RedisTokenStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKey(jti), userID, ttl).Err()
}

// Take reads and deletes jti atomically
func (s *RedisTokenStore) Take(ctx context.Context, jti string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, refreshKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidToken
	}
	return userID, err
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// LoginResult carries tokens and the signed-in user
type LoginResult struct {
	TokenPair
	User *entity.User `json:"user"`
}

// Directory is an external identity provider such as LDAP, Active Directory or Azure AD
type Directory interface {
	Method() string
	Authenticate(ctx context.Context, cred directory.Credentials) (*directory.User, error)
	Groups(ctx context.Context) ([]directory.Group, error)
}

// methodOrder is the order login methods are offered in
var methodOrder = []string{directory.MethodAzure, directory.MethodLDAP, directory.MethodAD}

// LoginRequest is a login with any method. Local, LDAP and AD use username and
// password, Azure AD an authorization code.
type LoginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	AuthMethod  string `json:"auth_method"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// AuthService handles login, directory group sync and token rotation
type AuthService struct {
	repos       *repository.Repositories
	userRepo    *repository.UserRepository
	tokens      TokenStore
	cfg         config.JWTConfig
	directories map[string]Directory
	logger      *zap.Logger
}

// NewAuthService creates an AuthService with local login only
func NewAuthService(repos *repository.Repositories, tokens TokenStore, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		repos:       repos,
		userRepo:    repos.User,
		tokens:      tokens,
		cfg:         cfg,
		directories: make(map[string]Directory),
		logger:      logger,
	}
}

// RegisterDirectory enables a directory login method
func (s *AuthService) RegisterDirectory(d Directory) {
	s.directories[d.Method()] = d
	s.logger.Info("directory login enabled", zap.String("method", d.Method()))
}

// Methods lists the enabled login methods, local first
func (s *AuthService) Methods() []string {
	methods := []string{"local"}
	for _, m := range methodOrder {
		if _, ok := s.directories[m]; ok {
			methods = append(methods, m)
		}
	}
	return methods
}

func (s *AuthService) directory(method string) (Directory, error) {
	if d, ok := s.directories[method]; ok {
		return d, nil
	}
	for _, m := range methodOrder {
		if m == method {
			return nil, fmt.Errorf("%w: %s", ErrAuthMethodDisabled, method)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAuthMethod, method)
}

// Authenticate logs in with the requested method. An empty method means local.
func (s *AuthService) Authenticate(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if req.AuthMethod == "" || req.AuthMethod == "local" {
		return s.Login(ctx, req.Username, req.Password)
	}
	d, err := s.directory(req.AuthMethod)
	if err != nil {
		return nil, err
	}
	if req.AuthMethod == directory.MethodAzure && (req.Code == "" || req.RedirectURI == "") {
		return nil, ErrMissingAuthCode
	}

	found, err := d.Authenticate(ctx, directory.Credentials{
		Username:    strings.TrimSpace(req.Username),
		Password:    req.Password,
		Code:        req.Code,
		RedirectURI: req.RedirectURI,
	})
	switch {
	case errors.Is(err, directory.ErrInvalidCredentials),
		errors.Is(err, directory.ErrUserNotFound),
		errors.Is(err, directory.ErrAmbiguousUser):
		s.logger.Warn("failed directory login", zap.String("method", req.AuthMethod),
			zap.String("username", req.Username), zap.Error(err))
		return nil, ErrInvalidCredentials
	case err != nil:
		s.logger.Error("directory login failed", zap.String("method", req.AuthMethod), zap.Error(err))
		return nil, fmt.Errorf("%s login: %w", req.AuthMethod, err)
	}

	user, err := s.provisionUser(ctx, req.AuthMethod, found)
	if err != nil {
		return nil, err
	}
	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: *pair, User: user}, nil
}

// provisionUser creates or refreshes the local account of a directory user and
// mirrors its group memberships. Accounts owned by another method are refused.
func (s *AuthService) provisionUser(ctx context.Context, method string, found *directory.User) (*entity.User, error) {
	if found.Username == "" {
		return nil, ErrInvalidCredentials
	}
	now := time.Now()
	user, err := s.userRepo.FindByUsername(ctx, found.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user = &entity.User{
			ID:         uuid.New().String(),
			Username:   found.Username,
			Name:       found.Name,
			Email:      found.Email,
			AuthMethod: method,
			Status:     "active",
			CreatedAt:  now,
		}
		if user.Name == "" {
			user.Name = found.Username
		}
		user.LastLoginAt = &now
		user.UpdatedAt = now
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create directory user: %w", err)
		}
		s.logger.Info("directory user created", zap.String("method", method), zap.String("username", user.Username))
	case err != nil:
		return nil, fmt.Errorf("find user: %w", err)
	default:
		if user.AuthMethod != method || user.Status != "active" {
			s.logger.Warn("directory login refused for account",
				zap.String("method", method), zap.String("username", user.Username),
				zap.String("account_method", user.AuthMethod), zap.String("status", user.Status))
			return nil, ErrInvalidCredentials
		}
		if found.Name != "" {
			user.Name = found.Name
		}
		if found.Email != "" {
			user.Email = found.Email
		}
		user.LastLoginAt = &now
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	// membership problems do not block the login
	if err := s.syncMemberships(ctx, method, user, found.Groups); err != nil {
		s.logger.Warn("group membership sync failed",
			zap.String("method", method), zap.String("username", user.Username), zap.Error(err))
	}
	return s.userRepo.FindByID(ctx, user.ID)
}

// syncMemberships adds the user to its directory groups and drops it from
// groups of the same source it no longer belongs to. Local groups are left alone.
func (s *AuthService) syncMemberships(ctx context.Context, method string, user *entity.User, groups []directory.Group) error {
	keep := make(map[string]bool, len(groups))
	for _, g := range groups {
		group, err := s.upsertGroup(ctx, method, g)
		if err != nil {
			return err
		}
		keep[group.ID] = true
		member := &entity.User{ID: user.ID, Username: user.Username, Name: user.Name}
		if err := s.repos.Group.AddMember(ctx, group.ID, member); err != nil {
			return fmt.Errorf("add %s to %s: %w", user.Username, group.Name, err)
		}
	}
	for _, g := range user.Groups {
		if g.Source == method && !keep[g.ID] {
			if err := s.repos.Group.RemoveMember(ctx, g.ID, &entity.User{ID: user.ID}); err != nil {
				return fmt.Errorf("remove %s from %s: %w", user.Username, g.Name, err)
			}
		}
	}
	return nil
}

// upsertGroup finds a directory group by its external id, creating or renaming it
func (s *AuthService) upsertGroup(ctx context.Context, source string, g directory.Group) (*entity.Group, error) {
	name := truncate(strings.TrimSpace(g.Name), 100)
	if name == "" {
		name = truncate(g.ExternalID, 100)
	}
	group, err := s.repos.Group.FindByExternalID(ctx, source, g.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		now := time.Now()
		group = &entity.Group{
			ID:          uuid.New().String(),
			Name:        name,
			Description: g.Description,
			Source:      source,
			ExternalID:  g.ExternalID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repos.Group.Create(ctx, group); err != nil {
			return nil, fmt.Errorf("create group %s: %w", name, err)
		}
		return group, nil
	}
	if err != nil {
		return nil, err
	}
	if group.Name != name || (g.Description != "" && group.Description != g.Description) {
		group.Name = name
		if g.Description != "" {
			group.Description = g.Description
		}
		group.UpdatedAt = time.Now()
		if err := s.repos.Group.Update(ctx, group); err != nil {
			return nil, fmt.Errorf("update group %s: %w", name, err)
		}
	}
	return group, nil
}

// SyncResult reports a directory group synchronisation
type SyncResult struct {
	Method string   `json:"method"`
	Count  int      `json:"count"`
	Failed []string `json:"failed"`
	// Stale lists stored groups of this source the directory no longer returns.
	// They are kept so their roles survive until an admin removes them.
	Stale  []string `json:"stale"`
}

// SyncGroups imports every group of a directory. Groups that cannot be stored
// are reported and skipped.
func (s *AuthService) SyncGroups(ctx context.Context, method string) (*SyncResult, error) {
	d, err := s.directory(method)
	if err != nil {
		return nil, err
	}
	groups, err := d.Groups(ctx)
	if err != nil {
		s.logger.Error("directory group listing failed", zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%s groups: %w", method, err)
	}

	res := &SyncResult{Method: method, Failed: []string{}, Stale: []string{}}
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		seen[g.ExternalID] = true
		if _, err := s.upsertGroup(ctx, method, g); err != nil {
			s.logger.Warn("group sync skipped", zap.String("method", method),
				zap.String("group", g.Name), zap.Error(err))
			res.Failed = append(res.Failed, g.Name)
			continue
		}
		res.Count++
	}

	stored, err := s.repos.Group.ListBySource(ctx, method)
	if err != nil {
		return nil, fmt.Errorf("list %s groups: %w", method, err)
	}
	for _, g := range stored {
		if !seen[g.ExternalID] {
			res.Stale = append(res.Stale, g.Name)
		}
	}
	s.logger.Info("directory groups synced", zap.String("method", method),
		zap.Int("count", res.Count), zap.Int("failed", len(res.Failed)), zap.Int("stale", len(res.Stale)))
	return res, nil
}

// AuthorizeURL returns the sign-in URL for redirect based methods, with a fresh state
func (s *AuthService) AuthorizeURL(method, redirectURI string) (url, state string, err error) {
	d, err := s.directory(method)
	if err != nil {
		return "", "", err
	}
	r, ok := d.(interface{ AuthCodeURL(state, redirectURI string) string })
	if !ok {
		return "", "", fmt.Errorf("%w: %s has no sign-in redirect", ErrUnknownAuthMethod, method)
	}
	if redirectURI == "" {
		return "", "", ErrMissingAuthCode
	}
	state = uuid.New().String()
	return r.AuthCodeURL(state, redirectURI), state, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Login checks a local username and password
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Status != "active" || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: *pair, User: user}, nil
}

// generateTokenPair signs an access and a refresh token
func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()

	roles := user.RoleCodes
	if roles == nil {
		roles = []string{}
	}
	accessClaims := jwt.MapClaims{
		"sub":      user.ID,
		"uid":      user.ID,
		"name":     user.Name,
		"username": user.Username,
		"roles":    roles,
		"iss":      s.cfg.Issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.AccessTokenExpire).Unix(),
		"jti":      uuid.New().String(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  user.ID,
		"type": "refresh",
		"iss":  s.cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.RefreshTokenExpire).Unix(),
		"jti":  refreshJti,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.tokens.Save(ctx, refreshJti, user.ID, s.cfg.RefreshTokenExpire); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenExpire.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// parseRefresh validates a refresh token and returns its jti
func (s *AuthService) parseRefresh(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["type"] != "refresh" {
		return "", ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", ErrInvalidToken
	}
	return jti, nil
}

// Refresh rotates a refresh token. Each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	jti, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	userID, err := s.tokens.Take(ctx, jti)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.generateTokenPair(ctx, user)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	jti, err := s.parseRefresh(refreshToken)
	if err != nil {
		return err
	}
	_, err = s.tokens.Take(ctx, jti)
	if errors.Is(err, ErrInvalidToken) {
		return nil
	}
	return err
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, userID string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// EnsureAdmin creates the admin account with the admin role when it does not exist.
// The password is only used on creation.
func (s *AuthService) EnsureAdmin(ctx context.Context, users *UserService, password string) error {
	if _, err := s.userRepo.FindByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if password == "" {
		s.logger.Warn("no admin account and no admin password configured")
		return nil
	}
	_, err := users.CreateUser(ctx, &CreateUserRequest{
		Username:  "admin",
		Name:      "Administrator",
		Password:  password,
		RoleCodes: []string{AdminRoleCode},
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin account created")
	return nil
}

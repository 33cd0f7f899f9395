package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a platform account. ProfileID points at the enterprise or investor
// profile matching Role; admins have none.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      string
	ProfileID string
	CreatedAt time.Time
}

type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	AddUser(u *User) error
	AddEnterprise(e *Enterprise) error
	AddInvestor(i *Investor) error
}

type TokenSigner func(uid, role, profileID, email string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string
	UserID    string
	Role      string
	ProfileID string
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// RegisterEnterprise creates an account plus its enterprise profile.
func (s *AuthService) RegisterEnterprise(email, password string, profile *Enterprise) (*AuthResult, error) {
	if profile == nil || strings.TrimSpace(profile.BusinessName) == "" {
		return nil, NewInvalidError("business_name required")
	}
	return s.register(email, password, RoleEnterprise, func(userID string) (string, error) {
		profile.ID = s.idGen("e", 7)
		profile.UserID = userID
		return profile.ID, s.store.AddEnterprise(profile)
	})
}

// RegisterInvestor creates an account plus its investor profile.
func (s *AuthService) RegisterInvestor(email, password string, profile *Investor) (*AuthResult, error) {
	if profile == nil {
		return nil, NewInvalidError("profile required")
	}
	return s.register(email, password, RoleInvestor, func(userID string) (string, error) {
		profile.ID = s.idGen("i", 7)
		profile.UserID = userID
		profile.Active = true
		return profile.ID, s.store.AddInvestor(profile)
	})
}

// EnsureAdmin creates an admin account with the given credentials unless the
// email is already registered. Used to bootstrap the first operator account.
func (s *AuthService) EnsureAdmin(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return NewInvalidError("email/password required")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.AddUser(&User{ID: s.idGen("u", 7), Email: email, PassHash: hash, Role: RoleAdmin, CreatedAt: s.now()})
}

func (s *AuthService) register(email, password, role string, makeProfile func(userID string) (string, error)) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	userID := s.idGen("u", 7)
	profileID, err := makeProfile(userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.AddUser(&User{ID: userID, Email: email, PassHash: hash, Role: role, ProfileID: profileID, CreatedAt: now}); err != nil {
		return nil, err
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(userID, role, profileID, email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: userID, Role: role, ProfileID: profileID}, nil
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Role, u.ProfileID, u.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID, Role: u.Role, ProfileID: u.ProfileID}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"neuroscan/internal/auth"
	"neuroscan/internal/domain"
	"neuroscan/internal/repository"
)

const (
	defaultAdminUsername = "admin"
	defaultPassword      = "password123"
	radiologistAccounts  = 5

	// Placeholder credential assigned to patients provisioned during
	// scan ingestion.
	defaultPatientPassword = "patient123"
)

// BackupFunc copies the credential store aside before it is mutated and
// returns the backup location ("" when there was nothing to copy).
type BackupFunc func() (string, error)

// PatientLoginRequest is a tagged union over the two patient
// authentication modes: username+password, or the legacy bare patient
// id with no password at all.
type PatientLoginRequest struct {
	Username string
	Password string
	// PatientID selects the legacy passwordless path when Username is empty.
	PatientID *int64
}

// UserService owns the credential store and both authentication paths.
type UserService interface {
	// EnsureDefaults idempotently seeds the default admin and
	// radiologist accounts, taking a backup of the store first.
	EnsureDefaults(ctx context.Context) error
	Authenticate(ctx context.Context, username, password string) (*domain.Identity, error)
	AuthenticatePatient(ctx context.Context, req PatientLoginRequest) (*domain.Identity, error)
	// ProvisionPatient creates a fresh patient account keyed by a
	// timestamp-derived numeric id and returns it with its username.
	ProvisionPatient(ctx context.Context) (int64, string, error)
}

type userService struct {
	users  repository.UserRepository
	scans  repository.ScanRepository
	backup BackupFunc
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, scans repository.ScanRepository, backup BackupFunc, logger *logrus.Logger) UserService {
	return &userService{
		users:  users,
		scans:  scans,
		backup: backup,
		logger: logger,
	}
}

func (s *userService) EnsureDefaults(ctx context.Context) error {
	if s.backup != nil {
		backupPath, err := s.backup()
		if err != nil {
			// A failed backup never blocks initialization.
			s.logger.Warnf("credential store backup failed: %v", err)
		} else if backupPath != "" {
			s.logger.Infof("credential store backed up to %s", backupPath)
		}
	}

	if err := s.insertIfMissing(ctx, defaultAdminUsername, defaultPassword, domain.RoleAdmin, nil); err != nil {
		return err
	}
	for i := 1; i <= radiologistAccounts; i++ {
		username := fmt.Sprintf("rad%d", i)
		if err := s.insertIfMissing(ctx, username, defaultPassword, domain.RoleRadiologist, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *userService) insertIfMissing(ctx context.Context, username, password string, role domain.Role, patientID *int64) error {
	hash, salt, iterations := auth.DerivePassword(password)
	err := s.users.Insert(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Iterations:   iterations,
		Role:         role,
		PatientID:    patientID,
		CreatedOn:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed user %s: %w", username, err)
	}
	s.logger.Infof("seeded default account %s (role=%s)", username, role)
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, user.PasswordSalt, user.Iterations, password) {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.Identity{
		Username:  user.Username,
		Role:      user.Role,
		PatientID: user.PatientID,
	}, nil
}

func (s *userService) AuthenticatePatient(ctx context.Context, req PatientLoginRequest) (*domain.Identity, error) {
	if strings.TrimSpace(req.Username) != "" {
		id, err := s.Authenticate(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		if id.Role != domain.RolePatient {
			return nil, domain.ErrInvalidCredentials
		}
		return id, nil
	}

	// Legacy path: a bare patient id with no password succeeds when any
	// scan references it. Retained as an explicit fallback alongside the
	// credential path; every use is logged so the weaker mode stays visible.
	if req.PatientID == nil {
		return nil, domain.ErrInvalidCredentials
	}
	count, err := s.scans.CountByPatient(ctx, *req.PatientID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Warnf("legacy passwordless login for patient %d", *req.PatientID)
	pid := *req.PatientID
	return &domain.Identity{
		Username:  strconv.FormatInt(pid, 10),
		Role:      domain.RolePatient,
		PatientID: &pid,
	}, nil
}

func (s *userService) ProvisionPatient(ctx context.Context) (int64, string, error) {
	patientID := time.Now().UTC().UnixMilli()
	username := strconv.FormatInt(patientID, 10)

	hash, salt, iterations := auth.DerivePassword(defaultPatientPassword)
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Iterations:   iterations,
		Role:         domain.RolePatient,
		PatientID:    &patientID,
		CreatedOn:    time.Now().UTC(),
	}

	err := s.users.Insert(ctx, user)
	if errors.Is(err, domain.ErrUserExists) {
		// Two ingestions can land on the same millisecond; retry once
		// with a randomized suffix.
		username = fmt.Sprintf("%d-%s", patientID, uuid.NewString()[:8])
		user.Username = username
		err = s.users.Insert(ctx, user)
	}
	if err != nil {
		return 0, "", fmt.Errorf("provision patient: %w", err)
	}
	return patientID, username, nil
}

package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Spheerys/UpSignOn-pro-server/internal/models"
	"github.com/Spheerys/UpSignOn-pro-server/internal/repositories"
)

type SharingService interface {
	// GetContactsForSharedItem lists the recipients of a shared item,
	// excluding the caller. The caller must be a recipient themselves.
	GetContactsForSharedItem(ctx context.Context, groupID int, req *models.GetContactsForSharedItemRequest) ([]models.SharedContact, error)

	// StopReceivingSharing removes the caller from a shared item unless
	// that would leave it without a manager.
	StopReceivingSharing(ctx context.Context, groupID int, req *models.StopReceivingSharingRequest) error

	// CheckEmailAddressForSharing reports whether the target address can
	// receive shared items, i.e. has a registered sharing key.
	CheckEmailAddressForSharing(ctx context.Context, groupID int, req *models.CheckEmailAddressForSharingRequest) (bool, error)
}

type sharingService struct {
	gate  AuthGate
	users repositories.UserRepository
	items repositories.SharedAccountRepository
	log   *zap.Logger
}

func NewSharingService(gate AuthGate, users repositories.UserRepository, items repositories.SharedAccountRepository, log *zap.Logger) SharingService {
	return &sharingService{gate: gate, users: users, items: items, log: log}
}

func (s *sharingService) authenticate(ctx context.Context, groupID int, auth *models.SharingAuthRequest) (*AuthenticatedUser, error) {
	cred := CredentialFromRequest(auth.DeviceAccessCode, auth.DeviceChallengeResponse)
	return s.gate.Authenticate(ctx, groupID, auth.UserEmail, auth.DeviceID, cred)
}

func (s *sharingService) GetContactsForSharedItem(ctx context.Context, groupID int, req *models.GetContactsForSharedItemRequest) ([]models.SharedContact, error) {
	if req.ItemID == 0 {
		return nil, ErrUnauthorized
	}
	caller, err := s.authenticate(ctx, groupID, &req.SharingAuthRequest)
	if err != nil {
		return nil, err
	}

	isRecipient, err := s.items.IsRecipient(ctx, req.ItemID, caller.UserID, groupID)
	if err != nil {
		return nil, err
	}
	if !isRecipient {
		return nil, ErrUnauthorized
	}

	contacts, err := s.items.ListContacts(ctx, req.ItemID, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SharedContact, 0, len(contacts))
	for _, c := range contacts {
		if !strings.EqualFold(c.Email, caller.Email) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *sharingService) StopReceivingSharing(ctx context.Context, groupID int, req *models.StopReceivingSharingRequest) error {
	if req.ItemID == 0 {
		return ErrUnauthorized
	}
	caller, err := s.authenticate(ctx, groupID, &req.SharingAuthRequest)
	if err != nil {
		return err
	}

	isRecipient, err := s.items.IsRecipient(ctx, req.ItemID, caller.UserID, groupID)
	if err != nil {
		return err
	}
	if !isRecipient {
		return ErrUnauthorized
	}

	ok, err := s.items.RemoveRecipient(ctx, req.ItemID, caller.UserID, groupID)
	if err != nil {
		return err
	}
	if !ok {
		// The conditional delete refused: no other manager remains.
		return ErrLastManager
	}
	return nil
}

func (s *sharingService) CheckEmailAddressForSharing(ctx context.Context, groupID int, req *models.CheckEmailAddressForSharingRequest) (bool, error) {
	target := strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if target == "" {
		return false, ErrUnauthorized
	}
	if _, err := s.authenticate(ctx, groupID, &req.SharingAuthRequest); err != nil {
		return false, err
	}
	return s.users.HasSharingKey(ctx, target, groupID)
}

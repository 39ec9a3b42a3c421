package profileService

import (
	"context"
	"strings"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/mailer"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
)

type ProfileService struct {
	Store  store.Store
	Mailer mailer.Mailer
	Log    *logger.Logger
}

func NewProfileService(st store.Store, m mailer.Mailer, log *logger.Logger) *ProfileService {
	return &ProfileService{Store: st, Mailer: m, Log: log.Named("profile-service")}
}

// Profile is the public view of a user, with the display name joined.
type Profile struct {
	*usermodels.User
	Name string `json:"name"`
}

func (p *ProfileService) GetUserProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := p.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Name: user.FullName()}, nil
}

// UpdateUserProfile replaces the editable fields and returns the new profile.
func (p *ProfileService) UpdateUserProfile(ctx context.Context, userID string, update store.ProfileUpdate) (*Profile, error) {
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.ProfileImage = strings.TrimSpace(update.ProfileImage)
	if update.FirstName == "" || update.LastName == "" {
		return nil, apperrors.Validation("First and last name are required.")
	}
	if err := p.Store.Users().UpdateUserProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	p.Log.Info("Profile updated", "user_id", userID)
	return p.GetUserProfile(ctx, userID)
}

// ListUsers returns every account. Served to admins and owners.
func (p *ProfileService) ListUsers(ctx context.Context) ([]usermodels.User, error) {
	users, err := p.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []usermodels.User{}
	}
	return users, nil
}

// SetUserType moves a user to another account tier.
func (p *ProfileService) SetUserType(ctx context.Context, userID string, userType usermodels.UserType) (*Profile, error) {
	if !userType.Valid() {
		return nil, apperrors.Validation("Invalid user type.")
	}
	if err := p.Store.Users().SetUserType(ctx, userID, userType); err != nil {
		return nil, err
	}
	p.Log.Audit("User type changed", "user_id", userID, "user_type", string(userType))
	return p.GetUserProfile(ctx, userID)
}

// PromoteToAdmin makes userID an admin and emails them. A failed email is
// logged and does not undo the promotion.
func (p *ProfileService) PromoteToAdmin(ctx context.Context, userID string) (*Profile, error) {
	profile, err := p.SetUserType(ctx, userID, usermodels.UserTypeAdmin)
	if err != nil {
		return nil, err
	}
	if p.Mailer != nil {
		if err := p.Mailer.Send(ctx, mailer.Promotion(profile.Email)); err != nil {
			p.Log.Error("Failed to send promotion email", "error", err, "user_id", userID)
		}
	}
	return profile, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/domain"
	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserUpsert carries the fields seen at login. Nil fields were not supplied
// and are left untouched on an existing row.
type UserUpsert struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *models.Role
	LastSignedIn *time.Time
}

func (g *Gateway) UpsertUser(ctx context.Context, in UserUpsert) error {
	if in.OpenID == "" {
		return fmt.Errorf("%w: user openId is required for upsert", domain.ErrValidation)
	}

	l := logging.FromContext(ctx).With("repo", "user.upsert")
	db, ok := g.Connect(ctx)
	if !ok {
		l.Warn("upsert_user_skipped", "reason", "database not available")
		return nil
	}

	now := g.opts.Now()
	signedIn := now
	if in.LastSignedIn != nil {
		signedIn = *in.LastSignedIn
	}

	user := models.User{
		OpenID:       in.OpenID,
		Name:         in.Name,
		Email:        in.Email,
		LoginMethod:  in.LoginMethod,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignedIn: signedIn,
	}
	set := map[string]any{
		"lastSignedIn": signedIn,
		"updatedAt":    now,
	}

	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Email != nil {
		set["email"] = *in.Email
	}
	if in.LoginMethod != nil {
		set["loginMethod"] = *in.LoginMethod
	}

	switch {
	case in.Role != nil:
		user.Role = *in.Role
		set["role"] = string(*in.Role)
	case g.opts.OwnerOpenID != "" && in.OpenID == g.opts.OwnerOpenID:
		user.Role = models.RoleAdmin
		set["role"] = string(models.RoleAdmin)
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "openId"}},
			DoUpdates: clause.Assignments(set),
		}).
		Create(&user).Error
	if err != nil {
		l.Error("upsert_user_error", "error", err)
		return persistErr("upsert user", err)
	}
	return nil
}

// GetUserByOpenID returns nil without error when the user does not exist or
// the store is unavailable.
func (g *Gateway) GetUserByOpenID(ctx context.Context, openID string) (*models.User, error) {
	db, ok := g.Connect(ctx)
	if !ok {
		logging.FromContext(ctx).Warn("get_user_skipped", "reason", "database not available")
		return nil, nil
	}

	var user models.User
	err := db.WithContext(ctx).Where(map[string]any{"openId": openID}).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get user", err)
	}
	return &user, nil
}

// RoleOf adapts the gateway to the session middleware role lookup.
func (g *Gateway) RoleOf(ctx context.Context, openID string) (string, error) {
	user, err := g.GetUserByOpenID(ctx, openID)
	if err != nil || user == nil {
		return "", err
	}
	return string(user.Role), nil
}

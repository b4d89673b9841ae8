// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Demo organization created when seed_demo is on.
const (
	demoOrgName        = "Red Cross"
	demoOrgPassword    = "redcross123"
	demoAdminEmail     = "admin@redcross.local"
	demoVolunteerEmail = "volunteer@redcross.local"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if err := ensureSuperAdmin(ctx, deps.MongoDatabase, appCfg, logger); err != nil {
		return err
	}
	if appCfg.SeedDemo {
		if err := seedDemo(ctx, deps.MongoDatabase, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureSuperAdmin makes superadmin_email a super admin, creating the
// account if needed. A configured password is applied only when the
// account has no personal password yet.
func ensureSuperAdmin(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail == "" {
		logger.Info("superadmin_email not set; skipping super admin bootstrap")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	users := userstore.New(db)
	u, err := users.GetByEmail(ctx, appCfg.SuperAdminEmail)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		if appCfg.SuperAdminPassword == "" {
			return fmt.Errorf("super admin %s does not exist and superadmin_password is empty", appCfg.SuperAdminEmail)
		}
		hash, err := authutil.HashPassword(appCfg.SuperAdminPassword)
		if err != nil {
			return fmt.Errorf("super admin password: %w", err)
		}
		created, err := users.Create(ctx, models.User{
			Email:        appCfg.SuperAdminEmail,
			Role:         models.RoleSuperAdmin,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("create super admin: %w", err)
		}
		logger.Info("created super admin", zap.String("email", created.Email))
		return nil
	case err != nil:
		return fmt.Errorf("load super admin: %w", err)
	}

	if u.Role != models.RoleSuperAdmin {
		if err := users.SetRole(ctx, u.ID, models.RoleSuperAdmin, nil); err != nil {
			return fmt.Errorf("promote super admin: %w", err)
		}
		logger.Info("promoted user to super admin", zap.String("email", u.Email), zap.String("from_role", u.Role))
	}
	if u.PasswordHash == "" && appCfg.SuperAdminPassword != "" {
		hash, err := authutil.HashPassword(appCfg.SuperAdminPassword)
		if err != nil {
			return fmt.Errorf("super admin password: %w", err)
		}
		if err := users.SetPasswordHash(ctx, u.ID, hash); err != nil {
			return fmt.Errorf("set super admin password: %w", err)
		}
	}
	return nil
}

// seedDemo creates the demo organization with an admin and a volunteer.
// It does nothing when the organization already exists.
func seedDemo(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	orgs := organizationstore.New(db)
	exists, err := orgs.ExistsByNameCI(ctx, demoOrgName)
	if err != nil {
		return fmt.Errorf("check demo organization: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := authutil.HashPassword(demoOrgPassword)
	if err != nil {
		return err
	}
	org, err := orgs.Create(ctx, models.Organization{
		Name:         demoOrgName,
		Description:  "Demo organization",
		ContactEmail: demoAdminEmail,
		IsActive:     true,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create demo organization: %w", err)
	}

	users := userstore.New(db)
	for _, u := range []models.User{
		{Email: demoAdminEmail, Role: models.RoleNonprofitAdmin, Profile: models.UserProfile{FirstName: "Demo", LastName: "Admin"}},
		{Email: demoVolunteerEmail, Role: models.RoleVolunteer, Profile: models.UserProfile{FirstName: "Demo", LastName: "Volunteer"}},
	} {
		u.OrganizationID = &org.ID
		if _, err := users.Create(ctx, u); err != nil && !errors.Is(err, userstore.ErrDuplicateEmail) {
			return fmt.Errorf("create demo user %s: %w", u.Email, err)
		}
	}

	logger.Info("seeded demo organization", zap.String("organization", org.Name), zap.String("admin", demoAdminEmail))
	return nil
}

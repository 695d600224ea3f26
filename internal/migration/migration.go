package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	applicationdomain "github.com/smallbiznis/talentlink/internal/application/domain"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	emailinvitationdomain "github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	recommendationdomain "github.com/smallbiznis/talentlink/internal/recommendation/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&userdomain.User{},
		&userdomain.Skill{},
		&userdomain.UserSkill{},
		&teamdomain.Team{},
		&teamdomain.Member{},
		&invitationdomain.Invitation{},
		&emailinvitationdomain.EmailInvitation{},
		&jobdomain.Posting{},
		&applicationdomain.Application{},
		&portfoliodomain.Portfolio{},
		&portfoliodomain.Contributor{},
		&recommendationdomain.Recommendation{},
		&auditdomain.Log{},
	}
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite and mysql,
// which the embedded SQL does not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}

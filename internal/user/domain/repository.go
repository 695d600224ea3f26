package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type SearchFilter struct {
	Query        string
	Role         string
	Availability string
	Skill        string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Search(ctx context.Context, filter SearchFilter, page pagination.Pagination) ([]User, error)

	FindOrCreateSkill(ctx context.Context, skill *Skill) (*Skill, error)
	ReplaceUserSkills(ctx context.Context, userID snowflake.ID, skills []UserSkill) error
	ListSkills(ctx context.Context, userIDs []snowflake.ID) ([]SkillView, error)
}

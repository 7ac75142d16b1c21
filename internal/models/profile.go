package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID    string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Email     string `gorm:"column:email;type:text;index" json:"email"`
	Role      Role   `gorm:"column:role;type:text;not null" json:"role"`
	FullName  string `gorm:"column:full_name;type:text" json:"full_name"`
	AvatarURL string `gorm:"column:avatar_url;type:text" json:"avatar_url"`
	Headline  string `gorm:"column:headline;type:text" json:"headline"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	// free-form settings (notification prefs, links, ...)
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageStat is a per-user per-provider daily rollup maintained by the consumer
// service from settled generation events.
type UsageStat struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;index:idx_usage_stats_bucket,unique"`
	Provider        string    `gorm:"type:varchar(50);not null;index:idx_usage_stats_bucket,unique"`
	Kind            string    `gorm:"type:varchar(20);not null;index:idx_usage_stats_bucket,unique"`
	Day             time.Time `gorm:"type:date;not null;index:idx_usage_stats_bucket,unique"`
	Jobs            int       `gorm:"not null;default:0"`
	CreditsSpent    int       `gorm:"not null;default:0"`
	CreditsRefunded int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (UsageStat) TableName() string {
	return "usage_stats"
}

package storage

import (
	"time"

	"gorm.io/gorm"
)

// AppState stores application state for checkpointing
type AppState struct {
	StateKey   string `gorm:"primaryKey;size:64"`
	StateValue string `gorm:"type:text;not null"`
	UpdatedTS  int64  `gorm:"not null;index"`
}

func (AppState) TableName() string {
	return "app_state"
}

// ScanRecord is one scored token scan
type ScanRecord struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenAddress        string  `gorm:"size:64;not null;index:idx_scan_token_created,priority:1" json:"tokenAddress"`
	TokenSymbol         string  `gorm:"size:32" json:"tokenSymbol"`
	TokenName           string  `gorm:"size:255" json:"tokenName"`
	Score               int     `gorm:"not null;index" json:"score"`
	RiskLevel           string  `gorm:"size:10;not null" json:"riskLevel"`
	HolderConcentration float64 `gorm:"type:decimal(8,4);not null" json:"holderConcentration"`
	RecentActivity      float64 `gorm:"type:decimal(8,4);not null" json:"recentActivity"`
	LiquidityDepth      float64 `gorm:"type:decimal(8,4);not null" json:"liquidityDepth"`
	SecurityScore       float64 `gorm:"type:decimal(8,4);not null" json:"securityScore"`
	VolumeAnomaly       float64 `gorm:"type:decimal(8,4);not null" json:"volumeAnomaly"`
	Top10Percentage     float64 `gorm:"type:decimal(8,4);not null" json:"top10Percentage"`
	PriceUSD            float64 `gorm:"type:decimal(30,12)" json:"priceUsd"`
	LiquidityUSD        float64 `gorm:"type:decimal(20,2)" json:"liquidityUsd"`
	Volume24hUSD        float64 `gorm:"type:decimal(20,2)" json:"volume24h"`
	Source              string  `gorm:"size:16;not null" json:"source"` // api, monitor, cli
	CreatedTS           int64   `gorm:"not null;index:idx_scan_token_created,priority:2" json:"createdTs"`
}

func (ScanRecord) TableName() string {
	return "scan_records"
}

// Alert stores sent risk alerts
type Alert struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	TokenAddress    string  `gorm:"size:64;not null;index"`
	TokenSymbol     string  `gorm:"size:32"`
	Score           int     `gorm:"not null"`
	RiskLevel       string  `gorm:"size:10;not null;index"`
	Top10Percentage float64 `gorm:"type:decimal(8,4);not null"`
	Explanation     string  `gorm:"type:text"`
	Channels        string  `gorm:"size:128"`
	CreatedTS       int64   `gorm:"not null;index"`
}

func (Alert) TableName() string {
	return "alerts"
}

// BeforeCreate hook for timestamps
func (a *AppState) BeforeCreate(tx *gorm.DB) error {
	if a.UpdatedTS == 0 {
		a.UpdatedTS = time.Now().Unix()
	}
	return nil
}

func (s *ScanRecord) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedTS == 0 {
		s.CreatedTS = time.Now().Unix()
	}
	return nil
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}

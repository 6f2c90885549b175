package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

type Plan string

const (
	PlanWeekly   Plan = "WEEKLY"
	PlanMonthly  Plan = "MONTHLY"
	PlanYearly   Plan = "YEARLY"
	PlanLifetime Plan = "LIFETIME"
)

type Level string

const (
	LevelBasic Level = "BASIC"
	LevelPlus  Level = "PLUS"
	LevelPro   Level = "PRO"
)

type ScanFilter string

const (
	ScanAll      ScanFilter = "ALL"
	ScanPremium  ScanFilter = "PREMIUM"
	ScanFree     ScanFilter = "FREE"
	ScanInactive ScanFilter = "INACTIVE"
)

const (
	MessageTypeText = "text"

	// GrantSourceAdmin tags subscription history entries created by this
	// core rather than by a paid transaction.
	GrantSourceAdmin = "ADMIN"
)

// User is the live per-user record. The registry holds no cached copy across
// calls; every handler re-reads before mutating.
type User struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Email               string                     `json:"email"`
	Role                string                     `json:"role"`
	Credits             int                        `json:"credits"`
	IsPremium           bool                       `json:"isPremium"`
	SubscriptionTier    string                     `json:"subscriptionTier,omitempty"`
	SubscriptionLevel   string                     `json:"subscriptionLevel,omitempty"`
	SubscriptionEndDate *time.Time                 `json:"subscriptionEndDate,omitempty"`
	IsGranted           bool                       `json:"isGranted,omitempty"`
	IsLocked            bool                       `json:"isLocked,omitempty"`
	Inbox               []InboxMessage             `json:"inbox,omitempty"`
	SubscriptionHistory []SubscriptionHistoryEntry `json:"subscriptionHistory,omitempty"`
	DailyAICount        int                        `json:"dailyAiCount,omitempty"`
	DailyAIDate         string                     `json:"dailyAiDate,omitempty"`
	LastActiveTime      *time.Time                 `json:"lastActiveTime,omitempty"`
}

// EffectiveDailyCount treats a counter whose date is not today as zero. The
// registry never resets the stored counter; readers apply this view.
func (u *User) EffectiveDailyCount(now time.Time) int {
	if u == nil {
		return 0
	}
	if u.DailyAIDate != now.Format("2006-01-02") {
		return 0
	}
	return u.DailyAICount
}

// SubscriptionHistoryEntry records one grant. Append-only: entries are never
// edited or removed once written. A nil EndDate means lifetime.
type SubscriptionHistoryEntry struct {
	ID          string     `json:"id"`
	Tier        string     `json:"tier"`
	Level       string     `json:"level"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Price       float64    `json:"price"`
	PaidAmount  float64    `json:"paidAmount"`
	IsFree      bool       `json:"isFree"`
	GrantSource string     `json:"grantSource"`
	GrantedBy   string     `json:"grantedBy"`
}

type InboxMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	Type      string    `json:"type"`
}

// SystemSettings is the single global configuration record. Read-modify-write
// as a whole; concurrent writers race, last write wins.
type SystemSettings struct {
	Notice        string         `json:"notice"`
	AILimits      map[string]int `json:"aiLimits,omitempty"`
	AIEnabled     bool           `json:"aiEnabled"`
	WeeklyTests   []WeeklyTest   `json:"weeklyTests,omitempty"`
	Theme         string         `json:"theme,omitempty"`
	MaintenanceOn bool           `json:"maintenanceOn,omitempty"`
}

type WeeklyTest struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"isActive"`
	TargetLevel  string    `json:"targetLevel,omitempty"`
	Questions    []any     `json:"questions"`
	TotalScore   int       `json:"totalScore"`
	PassingScore int       `json:"passingScore"`
	CreatedAt    time.Time `json:"createdAt"`
	Duration     int       `json:"durationMinutes,omitempty"`
	Subjects     []string  `json:"subjects,omitempty"`
}

// UserSummary is the redacted projection returned by user scans. Full records
// never leave the registry on listing paths.
type UserSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Credits int    `json:"credits"`
	Tier    string `json:"tier"`
}

// AILogEntry is one durable record of an assistant exchange.
type AILogEntry struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Tools     []string  `json:"tools,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToRecord converts a typed value into the map shape stores deal in.
func ToRecord(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// FromRecord decodes a store record into out, which must be a pointer.
func FromRecord(rec map[string]any, out any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/pkg/logger"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LevelRequirement is one line of a level's schedule: how many achievements of a
// kind must be consumed to complete the level.
type LevelRequirement struct {
	RequirementID string `mapstructure:"requirement_id" json:"requirement_id"`
	Name          string `mapstructure:"name" json:"name"`
	Required      int    `mapstructure:"required" json:"required"`
}

// LevelSchedule maps a level to the requirements that complete it, in consumption order.
type LevelSchedule map[int][]LevelRequirement

// DefaultLevelSchedule returns the built-in five level schedule.
func DefaultLevelSchedule() LevelSchedule {
	basics := func() []LevelRequirement {
		return []LevelRequirement{
			{RequirementID: "group_class", Name: "Gruppenstunde", Required: 6},
			{RequirementID: "exam", Name: "Prüfung", Required: 1},
		}
	}
	return LevelSchedule{
		1: basics(),
		2: basics(),
		3: basics(),
		4: {
			{RequirementID: "social_walk", Name: "Social Walk", Required: 6},
			{RequirementID: "tavern_training", Name: "Wirtshaustraining", Required: 2},
			{RequirementID: "exam", Name: "Prüfung", Required: 1},
		},
		5: {
			{RequirementID: "exam", Name: "Prüfung", Required: 1},
		},
	}
}

type levelFileEntry struct {
	Level        int                `mapstructure:"level"`
	Requirements []LevelRequirement `mapstructure:"requirements"`
}

// LoadLevelSchedule reads a schedule from a YAML (or any viper supported) file:
//
//	levels:
//	  - level: 1
//	    requirements:
//	      - requirement_id: group_class
//	        name: Gruppenstunde
//	        required: 6
func LoadLevelSchedule(path string) (LevelSchedule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read level schedule: %w", err)
	}

	var entries []levelFileEntry
	if err := v.UnmarshalKey("levels", &entries); err != nil {
		return nil, fmt.Errorf("decode level schedule: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: level schedule %s defines no levels", ErrValidation, path)
	}

	schedule := make(LevelSchedule, len(entries))
	for _, e := range entries {
		if e.Level < 1 {
			return nil, fmt.Errorf("%w: invalid level %d", ErrValidation, e.Level)
		}
		if _, dup := schedule[e.Level]; dup {
			return nil, fmt.Errorf("%w: level %d defined twice", ErrValidation, e.Level)
		}
		for _, r := range e.Requirements {
			if r.RequirementID == "" || r.Required < 1 {
				return nil, fmt.Errorf("%w: level %d has an invalid requirement %+v", ErrValidation, e.Level, r)
			}
		}
		schedule[e.Level] = append([]LevelRequirement(nil), e.Requirements...)
	}
	return schedule, nil
}

type LevelPolicy string

const (
	// LevelPolicyAdvisory always promotes; consumption is bookkeeping only.
	LevelPolicyAdvisory LevelPolicy = "advisory"
	// LevelPolicyStrict refuses a promotion while any requirement is short.
	LevelPolicyStrict LevelPolicy = "strict"
)

func ParseLevelPolicy(s string) (LevelPolicy, error) {
	switch p := LevelPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", LevelPolicyAdvisory:
		return LevelPolicyAdvisory, nil
	case LevelPolicyStrict:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown level policy %q", ErrValidation, s)
	}
}

// LevelService promotes users and consumes their achievements against an
// immutable schedule.
type LevelService struct {
	schedule LevelSchedule
	policy   LevelPolicy
}

func NewLevelService(schedule LevelSchedule, policy LevelPolicy) *LevelService {
	own := make(LevelSchedule, len(schedule))
	for level, reqs := range schedule {
		own[level] = append([]LevelRequirement(nil), reqs...)
	}
	if policy == "" {
		policy = LevelPolicyAdvisory
	}
	return &LevelService{schedule: own, policy: policy}
}

func (s *LevelService) Policy() LevelPolicy {
	return s.policy
}

// Requirements returns a copy of the schedule entry for level, nil if there is none.
func (s *LevelService) Requirements(level int) []LevelRequirement {
	reqs, ok := s.schedule[level]
	if !ok {
		return nil
	}
	return append([]LevelRequirement(nil), reqs...)
}

// Levels returns the configured levels in ascending order.
func (s *LevelService) Levels() []int {
	levels := make([]int, 0, len(s.schedule))
	for level := range s.schedule {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// consumptionPlan is the result of matching pending achievements to requirements.
type consumptionPlan struct {
	consume   []uint
	shortfall map[string]int
}

// planConsumption walks the requirements in order and takes, for each, up to
// Required matching achievements from pending, which must be sorted oldest first.
// An achievement taken for one requirement is not offered to the next.
func planConsumption(reqs []LevelRequirement, pending []models.Achievement) consumptionPlan {
	plan := consumptionPlan{shortfall: map[string]int{}}
	taken := make([]bool, len(pending))

	for _, req := range reqs {
		count := 0
		for i := range pending {
			if count >= req.Required {
				break
			}
			if taken[i] || pending[i].RequirementID != req.RequirementID {
				continue
			}
			taken[i] = true
			plan.consume = append(plan.consume, pending[i].ID)
			count++
		}
		if count < req.Required {
			plan.shortfall[req.RequirementID] += req.Required - count
		}
	}
	return plan
}

// Promote moves the user to newLevelID, consuming unconsumed achievements oldest
// first against the schedule of the level the user is leaving. Under the advisory
// policy missing achievements do not block the promotion.
func (s *LevelService) Promote(userID uint, newLevelID int) (*models.User, error) {
	if newLevelID < 1 {
		return nil, fmt.Errorf("%w: level must be at least 1", ErrValidation)
	}

	var fromLevel int
	var plan consumptionPlan

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		fromLevel = user.LevelID

		var pending []models.Achievement
		if err := tx.Where("user_id = ? AND is_consumed = ?", userID, false).
			Order("date_achieved asc, id asc").
			Find(&pending).Error; err != nil {
			return err
		}

		plan = planConsumption(s.schedule[fromLevel], pending)
		if s.policy == LevelPolicyStrict && len(plan.shortfall) > 0 {
			return fmt.Errorf("%w: missing %s", ErrRequirementsNotMet, formatShortfall(plan.shortfall))
		}

		if len(plan.consume) > 0 {
			if err := tx.Model(&models.Achievement{}).
				Where("id IN ?", plan.consume).
				Update("is_consumed", true).Error; err != nil {
				return err
			}
		}

		return tx.Model(&user).Update("level_id", newLevelID).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)

	fields := []zap.Field{
		zap.Uint("user_id", userID),
		zap.Int("from_level", fromLevel),
		zap.Int("to_level", newLevelID),
		zap.Int("consumed", len(plan.consume)),
	}
	if len(plan.shortfall) > 0 {
		fields = append(fields, zap.String("shortfall", formatShortfall(plan.shortfall)))
	}
	logger.Log.Info("user promoted", fields...)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func formatShortfall(shortfall map[string]int) string {
	keys := make([]string, 0, len(shortfall))
	for k := range shortfall {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d×%s", shortfall[k], k))
	}
	return strings.Join(parts, ", ")
}

type RequirementProgress struct {
	RequirementID string `json:"requirement_id"`
	Name          string `json:"name"`
	Required      int    `json:"required"`
	Available     int    `json:"available"`
	Met           bool   `json:"met"`
}

type LevelProgress struct {
	UserID       uint                  `json:"user_id"`
	LevelID      int                   `json:"level_id"`
	Requirements []RequirementProgress `json:"requirements"`
	Complete     bool                  `json:"complete"`
}

// Progress reports how far the user's unconsumed achievements cover the schedule
// of their current level.
func (s *LevelService) Progress(userID uint) (*LevelProgress, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	pending, err := FindAchievements(userID, true)
	if err != nil {
		return nil, err
	}
	available := map[string]int{}
	for _, a := range pending {
		available[a.RequirementID]++
	}

	progress := &LevelProgress{UserID: userID, LevelID: user.LevelID, Complete: true}
	for _, req := range s.schedule[user.LevelID] {
		rp := RequirementProgress{
			RequirementID: req.RequirementID,
			Name:          req.Name,
			Required:      req.Required,
			Available:     available[req.RequirementID],
		}
		rp.Met = rp.Available >= rp.Required
		if !rp.Met {
			progress.Complete = false
		}
		progress.Requirements = append(progress.Requirements, rp)
	}
	return progress, nil
}

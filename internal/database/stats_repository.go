package database

import (
	"time"

	"gorm.io/gorm"
)

// StatsRepository persists and updates per-Node statistics counters
// (spec §3.1), grounded on the teacher's DMRUserRepository upsert/query
// shape.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// getOrCreate returns the row for nodeName, creating a zeroed one if it
// doesn't exist yet.
func (r *StatsRepository) getOrCreate(nodeName string) (*NodeStats, error) {
	var s NodeStats
	err := r.db.Where("node_name = ?", nodeName).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		s = NodeStats{NodeName: nodeName}
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns the current counters for nodeName.
func (r *StatsRepository) Get(nodeName string) (*NodeStats, error) {
	return r.getOrCreate(nodeName)
}

// IncrementKerchunk bumps daily and total kerchunk counters.
func (r *StatsRepository) IncrementKerchunk(nodeName string) error {
	return r.bump(nodeName, map[string]interface{}{
		"daily_kerchunks": gorm.Expr("daily_kerchunks + 1"),
		"total_kerchunks": gorm.Expr("total_kerchunks + 1"),
	})
}

// IncrementKeyup bumps daily and total keyup counters.
func (r *StatsRepository) IncrementKeyup(nodeName string) error {
	return r.bump(nodeName, map[string]interface{}{
		"daily_keyups": gorm.Expr("daily_keyups + 1"),
		"total_keyups": gorm.Expr("total_keyups + 1"),
	})
}

// IncrementTimeout bumps daily and total timeout counters.
func (r *StatsRepository) IncrementTimeout(nodeName string) error {
	return r.bump(nodeName, map[string]interface{}{
		"daily_timeouts": gorm.Expr("daily_timeouts + 1"),
		"total_timeouts": gorm.Expr("total_timeouts + 1"),
	})
}

// IncrementExecutedCommand bumps daily and total executed-command
// counters (spec §4.2 "COMPLETE/COMPLETEQUIET ... increment daily/total
// executed-command counters").
func (r *StatsRepository) IncrementExecutedCommand(nodeName string) error {
	return r.bump(nodeName, map[string]interface{}{
		"daily_executed_commands": gorm.Expr("daily_executed_commands + 1"),
		"total_executed_commands": gorm.Expr("total_executed_commands + 1"),
	})
}

// AddTXSeconds accumulates keyed-transmit duration.
func (r *StatsRepository) AddTXSeconds(nodeName string, seconds float64) error {
	return r.bump(nodeName, map[string]interface{}{
		"tx_accumulated_seconds": gorm.Expr("tx_accumulated_seconds + ?", seconds),
	})
}

// RecordID stamps the last-identified time.
func (r *StatsRepository) RecordID(nodeName string, at time.Time) error {
	return r.bump(nodeName, map[string]interface{}{"last_id_at": at})
}

func (r *StatsRepository) bump(nodeName string, updates map[string]interface{}) error {
	if _, err := r.getOrCreate(nodeName); err != nil {
		return err
	}
	updates["updated_at"] = time.Now()
	return r.db.Model(&NodeStats{}).Where("node_name = ?", nodeName).Updates(updates).Error
}

// ResetDaily zeroes every daily counter for nodeName, for a midnight
// rollover job.
func (r *StatsRepository) ResetDaily(nodeName string) error {
	return r.db.Model(&NodeStats{}).Where("node_name = ?", nodeName).Updates(map[string]interface{}{
		"daily_kerchunks":         0,
		"daily_keyups":            0,
		"daily_timeouts":          0,
		"daily_executed_commands": 0,
		"updated_at":              time.Now(),
	}).Error
}

// ResetDailyAll zeroes daily counters across every node.
func (r *StatsRepository) ResetDailyAll() error {
	return r.db.Model(&NodeStats{}).Where("1 = 1").Updates(map[string]interface{}{
		"daily_kerchunks":         0,
		"daily_keyups":            0,
		"daily_timeouts":          0,
		"daily_executed_commands": 0,
		"updated_at":              time.Now(),
	}).Error
}

// All returns the stats row for every known node, for `rpt stats` with no
// node argument.
func (r *StatsRepository) All() ([]NodeStats, error) {
	var rows []NodeStats
	err := r.db.Order("node_name ASC").Find(&rows).Error
	return rows, err
}

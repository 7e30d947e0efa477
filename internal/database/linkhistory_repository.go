package database

import (
	"time"

	"gorm.io/gorm"
)

// LinkHistoryRepository persists link connection history (spec §3.2, for
// the `rpt lstats` administrative command of §6.4).
type LinkHistoryRepository struct {
	db *gorm.DB
}

func NewLinkHistoryRepository(db *gorm.DB) *LinkHistoryRepository {
	return &LinkHistoryRepository{db: db}
}

// Record appends one link event.
func (r *LinkHistoryRepository) Record(nodeName, peerNode string, outbound bool, kind LinkEventKind) error {
	ev := LinkEvent{
		NodeName:  nodeName,
		PeerNode:  peerNode,
		Outbound:  outbound,
		Kind:      kind,
		Timestamp: time.Now(),
	}
	return r.db.Create(&ev).Error
}

// Recent returns the most recent events for a node, newest first.
func (r *LinkHistoryRepository) Recent(nodeName string, limit int) ([]LinkEvent, error) {
	var rows []LinkEvent
	err := r.db.Where("node_name = ?", nodeName).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountByPeer reports how many times peerNode has connected to nodeName.
func (r *LinkHistoryRepository) CountByPeer(nodeName, peerNode string) (int64, error) {
	var count int64
	err := r.db.Model(&LinkEvent{}).
		Where("node_name = ? AND peer_node = ? AND kind = ?", nodeName, peerNode, LinkEventConnect).
		Count(&count).Error
	return count, err
}

// Prune deletes events older than before, for a periodic housekeeping job.
func (r *LinkHistoryRepository) Prune(before time.Time) error {
	return r.db.Where("timestamp < ?", before).Delete(&LinkEvent{}).Error
}

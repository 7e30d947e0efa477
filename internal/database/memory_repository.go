package database

import "gorm.io/gorm"

// MemoryRepository persists a Node's `[memory]` channel table (§6.1),
// letting channels recalled/edited at runtime (`rpt remote ... set_mem`)
// outlive a restart instead of only living in the static config file.
type MemoryRepository struct {
	db *gorm.DB
}

func NewMemoryRepository(db *gorm.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Upsert creates or replaces one memory channel row.
func (r *MemoryRepository) Upsert(ch MemoryChannel) error {
	return r.db.Save(&ch).Error
}

// Get returns one channel by node and index.
func (r *MemoryRepository) Get(nodeName string, index int) (*MemoryChannel, error) {
	var ch MemoryChannel
	err := r.db.Where("node_name = ? AND \"index\" = ?", nodeName, index).First(&ch).Error
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// List returns every channel for a node, ordered by index.
func (r *MemoryRepository) List(nodeName string) ([]MemoryChannel, error) {
	var rows []MemoryChannel
	err := r.db.Where("node_name = ?", nodeName).Order("\"index\" ASC").Find(&rows).Error
	return rows, err
}

// Delete removes one channel.
func (r *MemoryRepository) Delete(nodeName string, index int) error {
	return r.db.Where("node_name = ? AND \"index\" = ?", nodeName, index).Delete(&MemoryChannel{}).Error
}

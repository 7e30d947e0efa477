package database

import "time"

// NodeStats persists spec §3.1's per-Node "Statistics counters": daily and
// total kerchunks/keyups/timeouts/executed commands, plus TX-accumulated
// time, so a restart doesn't lose them and `rpt stats` has something to
// report.
type NodeStats struct {
	NodeName               string  `gorm:"primarykey;size:64" json:"node_name"`
	DailyKerchunks         int64   `json:"daily_kerchunks"`
	TotalKerchunks         int64   `json:"total_kerchunks"`
	DailyKeyups            int64   `json:"daily_keyups"`
	TotalKeyups            int64   `json:"total_keyups"`
	DailyTimeouts          int64   `json:"daily_timeouts"`
	TotalTimeouts          int64   `json:"total_timeouts"`
	DailyExecutedCommands  int64   `json:"daily_executed_commands"`
	TotalExecutedCommands  int64   `json:"total_executed_commands"`
	TXAccumulatedSeconds   float64 `json:"tx_accumulated_seconds"`
	LastIDAt               time.Time `json:"last_id_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (NodeStats) TableName() string { return "node_stats" }

// MemoryChannel persists one row of a Node's `[memory]` table (§6.1),
// mirroring config.MemorySlot's shape so a recalled channel survives a
// restart and can be edited via the control surface instead of only the
// config file.
type MemoryChannel struct {
	NodeName   string `gorm:"primarykey;size:64" json:"node_name"`
	Index      int    `gorm:"primarykey" json:"index"`
	FreqHz     uint64 `json:"freq_hz"`
	OffsetChar string `gorm:"size:1" json:"offset_char"`
	Mode       string `gorm:"size:8" json:"mode"`
	Power      int    `json:"power"`
	PLOn       bool   `json:"pl_on"`
	RXPLOn     bool   `json:"rx_pl_on"`
	TXPL       string `gorm:"size:8" json:"tx_pl"`
	RXPL       string `gorm:"size:8" json:"rx_pl"`
}

// TableName specifies the table name for GORM.
func (MemoryChannel) TableName() string { return "memory_channels" }

// LinkEventKind enumerates the link connection-history events of spec
// §3.2 ("represents one connection to a remote node").
type LinkEventKind string

const (
	LinkEventConnect    LinkEventKind = "connect"
	LinkEventDisconnect LinkEventKind = "disconnect"
	LinkEventReject     LinkEventKind = "reject"
)

// LinkEvent records one entry of a Node's link connection history, for the
// `rpt lstats` administrative command (§6.4) to report against.
type LinkEvent struct {
	ID        uint          `gorm:"primarykey" json:"id"`
	NodeName  string        `gorm:"index;size:64" json:"node_name"`
	PeerNode  string        `gorm:"size:64" json:"peer_node"`
	Outbound  bool          `json:"outbound"`
	Kind      LinkEventKind `gorm:"size:16" json:"kind"`
	Timestamp time.Time     `gorm:"index" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (LinkEvent) TableName() string { return "link_events" }

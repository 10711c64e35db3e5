package ecs

// ColumnStats describes the size of a single column.
type ColumnStats struct {
	Type      string `yaml:"type"`
	Len       int    `yaml:"len"`
	Cap       int    `yaml:"cap"`
	SparseLen int    `yaml:"sparse_len"`
	NeedsDrop bool   `yaml:"needs_drop"`
}

// StorageStats summarizes every column in a Storage.
type StorageStats struct {
	ColumnCount     int           `yaml:"column_count"`
	TotalComponents int           `yaml:"total_components"`
	TotalCapacity   int           `yaml:"total_capacity"`
	Columns         []ColumnStats `yaml:"columns"`
}

// CollectStats gathers statistics for all columns in type-name order.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		ColumnCount: len(s.order),
		Columns:     make([]ColumnStats, 0, len(s.order)),
	}
	for _, t := range s.order {
		cs := s.columns[t].Stats()
		stats.TotalComponents += cs.Len
		stats.TotalCapacity += cs.Cap
		stats.Columns = append(stats.Columns, cs)
	}
	return stats
}

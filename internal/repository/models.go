package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mem-analysis/pkg/model"
)

// MeasurementReport is the measurement_reports table. Scalar columns
// carry what list views need; the aggregate payloads live in JSON
// columns so the schema does not chase the report format.
type MeasurementReport struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UUID           string    `gorm:"column:uuid;type:varchar(64);uniqueIndex"`
	Source         string    `gorm:"column:source;type:varchar(512)"`
	SourceKind     int       `gorm:"column:source_kind"`
	Mode           int       `gorm:"column:mode"`
	CreatedAt      time.Time `gorm:"column:created_at;index"`
	DurationMS     int64     `gorm:"column:duration_ms"`
	TotalBytes     uint64    `gorm:"column:total_bytes"`
	ExclusiveBytes uint64    `gorm:"column:exclusive_bytes"`
	ObjectCount    int64     `gorm:"column:object_count"`
	LevelCount     int       `gorm:"column:level_count"`
	TypeStats      JSONField `gorm:"column:type_stats;type:json"`
	TopNodes       JSONField `gorm:"column:top_nodes;type:json"`
	Runtime        JSONField `gorm:"column:runtime;type:json"`
	StorageKey     string    `gorm:"column:storage_key;type:varchar(512)"`
}

// TableName returns the table name for MeasurementReport.
func (MeasurementReport) TableName() string {
	return "measurement_reports"
}

// newMeasurementReport converts a report into its table row, encoding
// the aggregate payloads.
func newMeasurementReport(r *model.Report) (*MeasurementReport, error) {
	record := &MeasurementReport{
		ID:             r.ID,
		UUID:           r.UUID,
		Source:         r.Source,
		SourceKind:     int(r.SourceKind),
		Mode:           int(r.Mode),
		CreatedAt:      r.CreatedAt,
		DurationMS:     r.DurationMS,
		TotalBytes:     r.TotalBytes,
		ExclusiveBytes: r.ExclusiveBytes,
		ObjectCount:    r.ObjectCount,
		LevelCount:     r.LevelCount,
		StorageKey:     r.StorageKey,
	}

	if len(r.TypeStats) > 0 {
		data, err := json.Marshal(r.TypeStats)
		if err != nil {
			return nil, fmt.Errorf("encode type stats: %w", err)
		}
		record.TypeStats = JSONField(data)
	}
	if len(r.TopNodes) > 0 {
		data, err := json.Marshal(r.TopNodes)
		if err != nil {
			return nil, fmt.Errorf("encode top nodes: %w", err)
		}
		record.TopNodes = JSONField(data)
	}
	if r.Runtime != nil {
		data, err := json.Marshal(r.Runtime)
		if err != nil {
			return nil, fmt.Errorf("encode runtime stats: %w", err)
		}
		record.Runtime = JSONField(data)
	}

	return record, nil
}

// ToModel converts a table row back into a report.
func (m *MeasurementReport) ToModel() (*model.Report, error) {
	report := &model.Report{
		ID:             m.ID,
		UUID:           m.UUID,
		Source:         m.Source,
		SourceKind:     model.SourceKind(m.SourceKind),
		Mode:           model.MeasureMode(m.Mode),
		CreatedAt:      m.CreatedAt,
		DurationMS:     m.DurationMS,
		TotalBytes:     m.TotalBytes,
		ExclusiveBytes: m.ExclusiveBytes,
		ObjectCount:    m.ObjectCount,
		LevelCount:     m.LevelCount,
		StorageKey:     m.StorageKey,
	}

	if m.TypeStats != nil {
		if err := json.Unmarshal(m.TypeStats, &report.TypeStats); err != nil {
			return nil, fmt.Errorf("decode type stats for %s: %w", m.UUID, err)
		}
	}
	if m.TopNodes != nil {
		if err := json.Unmarshal(m.TopNodes, &report.TopNodes); err != nil {
			return nil, fmt.Errorf("decode top nodes for %s: %w", m.UUID, err)
		}
	}
	if m.Runtime != nil {
		if err := json.Unmarshal(m.Runtime, &report.Runtime); err != nil {
			return nil, fmt.Errorf("decode runtime stats for %s: %w", m.UUID, err)
		}
	}

	return report, nil
}

// JSONField stores raw JSON in a database column without re-encoding.
type JSONField []byte

// Value implements driver.Valuer.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Package models defines GORM database models for skilltheme entities.
package models

import (
	"crypto/rand"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolVal dereferences b. A nil pointer reads as true, matching the
// default:true column tag on optional flags.
func BoolVal(b *bool) bool {
	return b == nil || *b
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// RecordID is a ULID primary key stored as its 26-character text form.
// IDs generated by one process sort in creation order.
type RecordID ulid.ULID

// NewRecordID generates a RecordID for the current time.
func NewRecordID() RecordID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return RecordID(ulid.MustNew(ulid.Timestamp(time.Now()), entropy))
}

// ParseRecordID parses the text form of a RecordID.
func ParseRecordID(s string) (RecordID, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return RecordID{}, fmt.Errorf("invalid record id %q: %w", s, err)
	}
	return RecordID(id), nil
}

func (id RecordID) String() string {
	return ulid.ULID(id).String()
}

// IsZero reports whether id is unset.
func (id RecordID) IsZero() bool {
	return id == RecordID{}
}

// Time returns the creation time encoded in id.
func (id RecordID) Time() time.Time {
	return ulid.Time(ulid.ULID(id).Time())
}

// Value implements driver.Valuer. The zero ID is stored as NULL.
func (id RecordID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.String(), nil
}

// Scan implements sql.Scanner.
func (id *RecordID) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scanning record id: unsupported type %T", value)
	}
	if s == "" {
		*id = RecordID{}
		return nil
	}
	parsed, err := ParseRecordID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler. The zero ID encodes as an
// empty string.
func (id RecordID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return []byte{}, nil
	}
	return ulid.ULID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *RecordID) UnmarshalText(text []byte) error {
	return id.Scan(string(text))
}

// GormDataType implements schema.GormDataTypeInterface.
func (RecordID) GormDataType() string {
	return "varchar(26)"
}

// BaseModel holds the columns shared by every table. Rows are hard deleted
// so project IDs can be reused.
type BaseModel struct {
	ID        RecordID  `gorm:"primarykey;type:varchar(26)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID to new rows that lack one.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewRecordID()
	}
	return nil
}

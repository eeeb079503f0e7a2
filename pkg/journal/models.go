package journal

import (
	"fmt"
	"time"
)

// FrameRecord is a frame seen by a role.
type FrameRecord struct {
	ID        uint      `gorm:"primarykey"`
	Role      string    `gorm:"index;size:32"`
	Direction string    `gorm:"size:2"`
	Raw       []byte    `gorm:"not null"`
	At        time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (FrameRecord) TableName() string {
	return "frames"
}

func (r FrameRecord) String() string {
	return fmt.Sprintf("%s %s %s %q", r.At.Format("15:04:05.000"), r.Role, r.Direction, r.Raw)
}

// TransactionRecord is a finished master transaction.
type TransactionRecord struct {
	ID        uint `gorm:"primarykey"`
	Address   int  `gorm:"index"`
	Function  byte
	Request   string `gorm:"size:520"`
	Response  string `gorm:"size:520"`
	Attempts  int
	Outcome   string `gorm:"size:16"`
	Err       string
	StartedAt time.Time `gorm:"index"`
	Duration  time.Duration
}

// TableName specifies the table name for GORM.
func (TransactionRecord) TableName() string {
	return "transactions"
}

func (r TransactionRecord) String() string {
	s := fmt.Sprintf("%s addr=%d fn=%d attempts=%d %s %v",
		r.StartedAt.Format("15:04:05.000"), r.Address, r.Function, r.Attempts, r.Outcome, r.Duration)
	if r.Err != "" {
		s += ": " + r.Err
	}
	return s
}

// StoredText is the persisted text of a station.
type StoredText struct {
	Address   byte `gorm:"primarykey;autoIncrement:false"`
	Text      []byte
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (StoredText) TableName() string {
	return "stored_texts"
}

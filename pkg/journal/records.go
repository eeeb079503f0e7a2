package journal

import (
	"errors"
	"time"

	"github.com/golang/glog"
	"gorm.io/gorm"

	"github.com/robotalks/mbascii/pkg/link"
	"github.com/robotalks/mbascii/pkg/master"
)

// Tap returns a link.Tap recording frames of role.
func (d *DB) Tap(role string) link.Tap {
	return link.TapFunc(func(dir link.Direction, raw []byte) {
		rec := &FrameRecord{
			Role:      role,
			Direction: dir.String(),
			Raw:       append([]byte{}, raw...),
			At:        time.Now(),
		}
		if err := d.db.Create(rec).Error; err != nil {
			glog.Errorf("journal: record frame: %v", err)
		}
	})
}

// Transaction implements master.Observer.
func (d *DB) Transaction(tx *master.Transaction) {
	rec := &TransactionRecord{
		Address:   tx.Address,
		Function:  byte(tx.Function),
		Request:   string(tx.Request),
		Response:  string(tx.Response),
		Attempts:  tx.Attempts,
		Outcome:   tx.Outcome(),
		StartedAt: tx.StartedAt,
		Duration:  tx.Duration,
	}
	if tx.Err != nil {
		rec.Err = tx.Err.Error()
	}
	if err := d.db.Create(rec).Error; err != nil {
		glog.Errorf("journal: record transaction: %v", err)
	}
}

// RecentFrames returns the latest n frames, oldest first.
func (d *DB) RecentFrames(n int) ([]FrameRecord, error) {
	var recs []FrameRecord
	if err := d.db.Order("id desc").Limit(n).Find(&recs).Error; err != nil {
		return nil, err
	}
	reverse(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
	return recs, nil
}

// RecentTransactions returns the latest n transactions, oldest first.
func (d *DB) RecentTransactions(n int) ([]TransactionRecord, error) {
	var recs []TransactionRecord
	if err := d.db.Order("id desc").Limit(n).Find(&recs).Error; err != nil {
		return nil, err
	}
	reverse(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })
	return recs, nil
}

func reverse(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

// LoadText implements station.TextStore. A station never written has
// empty text.
func (d *DB) LoadText(addr byte) ([]byte, error) {
	var rec StoredText
	err := d.db.Where("address = ?", addr).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Text, nil
}

// SaveText implements station.TextStore.
func (d *DB) SaveText(addr byte, text []byte) error {
	return d.db.Save(&StoredText{Address: addr, Text: text, UpdatedAt: time.Now()}).Error
}

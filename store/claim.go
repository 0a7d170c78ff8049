package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// AcquireClaim atomically claims a (dataset version, stage) slot for one run.
// The unique index turns the check-then-act race between two concurrent
// invocations into a duplicate-key failure for the loser, which surfaces as
// ErrClaimHeld and is reported as a clean skip.
func (s *Store) AcquireClaim(ctx context.Context, datasetVersion, stage, runID string) error {
	m := buildClaimModel{
		DatasetVersion: datasetVersion,
		Stage:          stage,
		RunID:          runID,
		CreatedAt:      time.Now(),
	}
	err := s.db.WithContext(ctx).Create(&m).Error
	if isDuplicateKey(err) {
		return ErrClaimHeld
	}
	return err
}

// isDuplicateKey matches unique-constraint violations. gorm's translated
// sentinel covers the common case; the string match covers drivers (like the
// CGo-free sqlite one) whose errors the dialector does not recognize.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ReleaseClaim frees a claim when a run finishes. The "already done" gates
// (virtual-stop count, metadata presence) guard re-execution after success;
// the claim only serializes concurrent runs. A claim left behind by a crashed
// process has to be released by an operator before the stage can run again.
func (s *Store) ReleaseClaim(ctx context.Context, datasetVersion, stage string) error {
	return s.db.WithContext(ctx).
		Where("dataset_version = ? AND stage = ?", datasetVersion, stage).
		Delete(&buildClaimModel{}).Error
}

package repository

import "github.com/AMeenalosini/StressTesting/domain"

type StressRunRepository interface {
	Save(run domain.StressRun) error
	// Recent returns up to limit runs, newest first.
	Recent(limit int) ([]domain.StressRun, error)
	Close() error
}

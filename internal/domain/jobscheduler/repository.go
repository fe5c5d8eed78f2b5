package jobscheduler

import "context"

type Repository interface {
	RecordRun(ctx context.Context, event RunEvent) error
}

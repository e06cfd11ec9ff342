// Package catalog provides reward video and task management.
package catalog

import (
	"context"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
)

// Catalog defines a set of methods for types implementing Catalog.
type Catalog interface {
	AddVideo(ctx context.Context, request modeldto.NewVideo) (*modeldto.Video, error)
	GetVideos(ctx context.Context) ([]modeldto.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	AddTask(ctx context.Context, request modeldto.NewTask) (*modeldto.Task, error)
	GetTasks(ctx context.Context) ([]modeldto.Task, error)
	DeleteTask(ctx context.Context, id string) error
	SweepCatalog(ctx context.Context) (int64, error)
}

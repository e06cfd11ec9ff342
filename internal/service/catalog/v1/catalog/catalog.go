// Package catalog implements reward video and task management.
package catalog

import (
	"context"
	"time"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1"
)

// Catalog defines attributes of a struct available to its methods.
type Catalog struct {
	storage      storage.Catalog
	generator    idgen.Generator
	rewardConfig *config.RewardConfig
	now          func() time.Time
}

// InitService initializes a catalog service.
func InitService(st storage.Catalog, gen idgen.Generator, rewardConfig *config.RewardConfig) (*Catalog, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if gen == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil generator was passed to service initializer"}
	}
	catalog := &Catalog{
		storage:      st,
		generator:    gen,
		rewardConfig: rewardConfig,
		now:          time.Now,
	}
	return catalog, nil
}

// SetClock overrides the time source, used by deterministic tests.
func (cat *Catalog) SetClock(now func() time.Time) {
	cat.now = now
}

// AddVideo persists a new reward video.
func (cat *Catalog) AddVideo(ctx context.Context, request modeldto.NewVideo) (*modeldto.Video, error) {
	if request.Title == "" {
		return nil, &serviceErrors.EmptyTitleError{}
	}
	if request.Reward <= 0 {
		return nil, &serviceErrors.IllegalRewardError{Reward: request.Reward}
	}
	entry := modelstorage.VideoStorageEntry{
		ID:          cat.generator.NewID(),
		Title:       request.Title,
		URL:         request.URL,
		RedirectURL: request.Redirect,
		Reward:      request.Reward,
		CreatedAt:   cat.now(),
	}
	err := cat.storage.AddVideo(ctx, entry)
	if err != nil {
		return nil, err
	}
	video := toVideo(entry)
	return &video, nil
}

// GetVideos returns every video in its public shape, the redirect target
// stays server-side.
func (cat *Catalog) GetVideos(ctx context.Context) ([]modeldto.Video, error) {
	entries, err := cat.storage.GetVideos(ctx)
	if err != nil {
		return nil, err
	}
	videos := make([]modeldto.Video, 0, len(entries))
	for _, entry := range entries {
		videos = append(videos, toVideo(entry))
	}
	return videos, nil
}

// DeleteVideo removes one video by its identifier.
func (cat *Catalog) DeleteVideo(ctx context.Context, id string) error {
	return cat.storage.DeleteVideo(ctx, id)
}

// AddTask persists a new reward task.
func (cat *Catalog) AddTask(ctx context.Context, request modeldto.NewTask) (*modeldto.Task, error) {
	if request.Title == "" {
		return nil, &serviceErrors.EmptyTitleError{}
	}
	if request.Reward <= 0 {
		return nil, &serviceErrors.IllegalRewardError{Reward: request.Reward}
	}
	entry := modelstorage.TaskStorageEntry{
		ID:          cat.generator.NewID(),
		Title:       request.Title,
		Description: request.Description,
		RedirectURL: request.Redirect,
		Reward:      request.Reward,
		CreatedAt:   cat.now(),
	}
	err := cat.storage.AddTask(ctx, entry)
	if err != nil {
		return nil, err
	}
	task := toTask(entry)
	return &task, nil
}

// GetTasks returns every task in its public shape.
func (cat *Catalog) GetTasks(ctx context.Context) ([]modeldto.Task, error) {
	entries, err := cat.storage.GetTasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]modeldto.Task, 0, len(entries))
	for _, entry := range entries {
		tasks = append(tasks, toTask(entry))
	}
	return tasks, nil
}

// DeleteTask removes one task by its identifier.
func (cat *Catalog) DeleteTask(ctx context.Context, id string) error {
	return cat.storage.DeleteTask(ctx, id)
}

// SweepCatalog deletes videos and tasks older than the catalog lifetime.
func (cat *Catalog) SweepCatalog(ctx context.Context) (int64, error) {
	cutoff := cat.now().Add(-cat.rewardConfig.CatalogTTL)
	swept, err := cat.storage.SweepVideos(ctx, cutoff)
	if err != nil {
		return swept, err
	}
	sweptTasks, err := cat.storage.SweepTasks(ctx, cutoff)
	return swept + sweptTasks, err
}

func toVideo(entry modelstorage.VideoStorageEntry) modeldto.Video {
	return modeldto.Video{
		ID:        entry.ID,
		Title:     entry.Title,
		URL:       entry.URL,
		Reward:    entry.Reward,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
}

func toTask(entry modelstorage.TaskStorageEntry) modeldto.Task {
	return modeldto.Task{
		ID:          entry.ID,
		Title:       entry.Title,
		Description: entry.Description,
		Reward:      entry.Reward,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
}

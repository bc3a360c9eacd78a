package storage

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

type fileRef struct {
	folder string
	name   string
}

// Batch отслеживает файлы одной единицы работы, выполняемой вместе с транзакцией БД.
// Записанные файлы удаляются при Rollback; удаления старых файлов откладываются до Commit,
// чтобы откат транзакции не оставлял строки без файлов.
type Batch struct {
	store  FileStore
	logger *zap.SugaredLogger

	mu      sync.Mutex
	written []fileRef
	retired []fileRef
	done    bool
}

func NewBatch(store FileStore, logger *zap.SugaredLogger) *Batch {
	return &Batch{store: store, logger: logger}
}

// Save сохраняет файл и запоминает его для отката.
func (b *Batch) Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error) {
	name, err := b.store.Save(ctx, folder, originalName, r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.written = append(b.written, fileRef{folder: folder, name: name})
	b.mu.Unlock()
	return name, nil
}

// RemoveOnCommit помечает файл к удалению после успешной фиксации.
func (b *Batch) RemoveOnCommit(folder, name string) {
	if name == "" {
		return
	}
	b.mu.Lock()
	b.retired = append(b.retired, fileRef{folder: folder, name: name})
	b.mu.Unlock()
}

// Written возвращает число файлов, записанных в рамках пакета.
func (b *Batch) Written() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.written)
}

// Commit удаляет заменённые файлы. Ошибки только логируются: данные в БД уже зафиксированы.
func (b *Batch) Commit(ctx context.Context) {
	refs := b.finish(func() []fileRef { return b.retired })
	b.removeAll(ctx, refs, "commit")
}

// Rollback удаляет все файлы, записанные в рамках пакета. Старые файлы не трогаются.
func (b *Batch) Rollback(ctx context.Context) {
	refs := b.finish(func() []fileRef { return b.written })
	b.removeAll(ctx, refs, "rollback")
}

func (b *Batch) finish(pick func() []fileRef) []fileRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return nil
	}
	b.done = true
	refs := pick()
	b.written, b.retired = nil, nil
	return refs
}

func (b *Batch) removeAll(ctx context.Context, refs []fileRef, phase string) {
	// очистка выполняется и после истечения таймаута запроса
	ctx = context.WithoutCancel(ctx)
	for _, f := range refs {
		if err := b.store.Remove(ctx, f.folder, f.name); err != nil && !errors.Is(err, ErrFileNotFound) {
			b.logger.Warnw("file cleanup failed", "phase", phase, "folder", f.folder, "name", f.name, "error", err)
		}
	}
}

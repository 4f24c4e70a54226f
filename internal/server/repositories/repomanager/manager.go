package repomanager

import (
	"context"
	"database/sql"

	"github.com/dropnote/dropnote/internal/dbx"
	"github.com/dropnote/dropnote/internal/server/repositories/messages"
	"github.com/dropnote/dropnote/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run a repository against either the pool or an open
// transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}

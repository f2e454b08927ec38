package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_riddles.sql
var createRiddlesSQL string

//go:embed 0002_create_players.sql
var createPlayersSQL string

var Migrations = migrate.NewMigrations()

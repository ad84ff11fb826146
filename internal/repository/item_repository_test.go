package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

var itemRowColumns = []string{"id", "name", "season", "class_type", "applied_templates", "updated_at"}

func TestItemRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	rows := sqlmock.NewRows(itemRowColumns).
		AddRow("ITEM-1", "Pumpkin arch", "Halloween", "Inflatable", "{tpl-1,tpl-2}", time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
		WithArgs("ITEM-1").
		WillReturnRows(rows)

	item, err := repo.FindByID(context.Background(), "ITEM-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeasonHalloween, item.Season)
	assert.True(t, item.HasTemplate("tpl-2"))
	assert.False(t, item.HasTemplate("tpl-3"))
}

func TestItemRepositoryListBySeason(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	rows := sqlmock.NewRows(itemRowColumns).
		AddRow("ITEM-2", "Star", "Christmas", "StringLight", "{}", time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE season = $1 ORDER BY id ASC")).
		WithArgs(models.SeasonChristmas).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.ItemFilter{Season: models.SeasonChristmas})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].AppliedTemplates)
}

func TestItemRepositoryUpdateAppliedTemplatesMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE items SET applied_templates = $1")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAppliedTemplates(context.Background(), "ghost", []string{"tpl-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestItemRepositoryRemoveAppliedTemplate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET applied_templates = array_remove(applied_templates, $1)")).
		WithArgs("tpl-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ITEM-1").AddRow("ITEM-4"))

	ids, err := repo.RemoveAppliedTemplate(context.Background(), nil, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEM-1", "ITEM-4"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

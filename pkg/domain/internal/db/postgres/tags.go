package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	kpool "github.com/modelyard/modelyard/pkg/conn/db/postgres/pool"
	"github.com/modelyard/modelyard/pkg/domain"
	"github.com/modelyard/modelyard/pkg/utils"
)

// TagTable tells tag filters which tables to look into.
type TagTable struct {
	// table holding user tags, like "experiment_tag".
	Table string

	// column of the tag table referring the tagged item.
	IdColumn string

	// table holding the tagged items.
	ItemTable string

	// identity column of the item table.
	ItemIdColumn string

	// timestamp column of the item table.
	TimestampColumn string
}

var (
	TagTableOfExperiment = TagTable{
		Table:           "experiment_tag",
		IdColumn:        "experiment_id",
		ItemTable:       "experiment",
		ItemIdColumn:    "id",
		TimestampColumn: "created_at",
	}

	TagTableOfRun = TagTable{
		Table:           "run_tag",
		IdColumn:        "run_id",
		ItemTable:       "run",
		ItemIdColumn:    "id",
		TimestampColumn: "created_at",
	}

	TagTableOfModel = TagTable{
		Table:           "model_tag",
		IdColumn:        "model_name",
		ItemTable:       "model",
		ItemIdColumn:    "name",
		TimestampColumn: "created_at",
	}
)

// UserTagsOf reads user tags of the given items, keyed by item id.
func UserTagsOf(ctx context.Context, conn kpool.Queryer, table TagTable, ids []string) (map[string][]domain.Tag, error) {
	rows, err := conn.Query(
		ctx,
		`
		select "`+table.IdColumn+`", "key", "value"
		from "`+table.Table+`"
		where "`+table.IdColumn+`" = any($1::varchar[])
		`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string][]domain.Tag{}
	for rows.Next() {
		var id, key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			return nil, err
		}
		tag, err := domain.NewTag(key, value)
		if err != nil {
			return nil, err
		}
		result[id] = append(result[id], tag)
	}

	return result, nil
}

// InsertUserTags writes the user tags of the set for an item.
//
// System tags in the set are dropped since they are derived from the
// item itself when reading.
func InsertUserTags(ctx context.Context, conn kpool.Queryer, table TagTable, id string, tags *domain.TagSet) error {
	for _, t := range tags.UserTag() {
		if _, err := conn.Exec(
			ctx,
			`
			insert into "`+table.Table+`" ("`+table.IdColumn+`", "key", "value")
			values ($1, $2, $3)
			on conflict do nothing
			`,
			id, t.Key, t.Value,
		); err != nil {
			return err
		}
	}
	return nil
}

// FilterIdsByTags narrows ids to items which have all tags in the set.
//
// System tags are matched against the item table itself:
// "yard#id" against the identity column, "yard#timestamp" against the
// timestamp column.
func FilterIdsByTags(
	ctx context.Context,
	conn kpool.Queryer,
	table TagTable,
	ids []string,
	tags *domain.TagSet,
) ([]string, error) {
	if tags.Len() == 0 || len(ids) == 0 {
		return ids, nil
	}

	for _, tag := range tags.Slice() {
		if len(ids) == 0 {
			return ids, nil
		}

		var rows pgx.Rows
		switch tag.Key {
		case domain.KeyYardId:
			ids = utils.Filter(ids, func(id string) bool { return id == tag.Value })
			continue
		case domain.KeyYardTimestamp:
			if _, err := domain.NewTag(tag.Key, tag.Value); err != nil {
				return nil, err
			}
			r, err := conn.Query(
				ctx,
				`
				select "`+table.ItemIdColumn+`" from "`+table.ItemTable+`"
				where "`+table.ItemIdColumn+`" = any($1::varchar[])
					and "`+table.TimestampColumn+`" = $2::timestamp with time zone
				`,
				ids, tag.Value,
			)
			if err != nil {
				return nil, err
			}
			rows = r
		default:
			r, err := conn.Query(
				ctx,
				`
				select "`+table.IdColumn+`" from "`+table.Table+`"
				where "`+table.IdColumn+`" = any($1::varchar[])
					and "key" = $2 and "value" = $3
				`,
				ids, tag.Key, tag.Value,
			)
			if err != nil {
				return nil, err
			}
			rows = r
		}

		matched := []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			matched = append(matched, id)
		}
		rows.Close()
		ids = matched
	}

	return ids, nil
}

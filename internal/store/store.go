// Package store holds the Postgres repositories. One repository per
// entity, all built on pgxpool with squirrel for query generation and
// pgxscan for row mapping.
package store

import (
	sq "github.com/Masterminds/squirrel"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

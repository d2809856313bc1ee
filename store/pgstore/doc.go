// Package pgstore implements account.Store on PostgreSQL through
// database/sql and the pgx driver. The schema is managed with goose
// migrations embedded in the migrations sub-package.
package pgstore

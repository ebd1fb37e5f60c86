// Package postgres bulk-loads datasets into PostgreSQL tables with a pgvector
// (or VectorChord) vector column.
//
// Each table is loaded in one transaction: an optional DROP TABLE, the
// CREATE TABLE, and a COPY ... FROM STDIN WITH (FORMAT BINARY) fed by a
// pgcopy.Encoder through an io.Pipe. A failed load leaves no table behind.
//
// Conn and Tx abstract the driver so the load protocol can be tested without
// a server; Connect provides the pgx implementation.
package postgres

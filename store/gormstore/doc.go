// Package gormstore provides a PostgreSQL-backed implementation of
// [authcore.UserStore] on GORM.
//
// [Open] dials the database with error translation enabled so duplicate-key
// violations surface as [authcore.ErrEmailExists]; [Store.AutoMigrate]
// creates the users table.
//
// # What this package must NOT do
//
//   - Hash passwords or validate input (the engine owns both).
//   - Leak gorm error values across the store boundary.
package gormstore

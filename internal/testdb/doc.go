// Package testdb provides helpers for database integration tests.
//
// Tests run inside a transaction that is rolled back when the test
// completes, so they can share one database and run in parallel:
//
//	func TestTaskStore(t *testing.T) {
//		db := testdb.GetTestDBWithT(t)
//		testdb.SetupTestDatabaseSchema(t, db)
//
//		testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
//			tasks := postgres.NewPostgresTaskStore(tx, nil)
//			// ...
//		})
//	}
//
// GetTestDBWithT skips the test when no database URL is configured. The URL
// is read from DATABASE_URL, then TAREAS_TEST_DATABASE_URL.
package testdb

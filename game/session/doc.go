// Package session stores live game sessions and their persisted snapshots.
//
// Manager keeps sessions in memory under case-insensitive 4-character IDs
// and writes them through a SessionPersistence: FilePersistence keeps one
// JSON document per session, SQLitePersistence one row per session.
//
// A session whose engine has a pending chain reaction is never written; the
// service saves it again once the chain resolves. On shutdown the service
// resolves outstanding chains under its own lock and then saves.
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions.db", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManager(session.WithPersistence(store), session.WithLogger(logger))
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "classic", config)
package session

// Package directory is the record-ingestion and query engine of the
// connector.
//
// It is independent of any transport: the web package, the refresh
// scheduler and tests all drive it through [Service].
//
// # Ingestion
//
// A [Coordinator] refresh loads the column mapping, reads the users CSV,
// turns each row into a [UserRecord] with a [Mapper], and publishes the
// result as a new [Snapshot] in the [Store]:
//
//	coord := directory.NewCoordinator(directory.Settings{
//	    UsersFilePath:   "/data/users.csv",
//	    ProcessedFolder: "/data/processed",
//	    MappingFile:     "/etc/scimfile/CSVColumnMapping.properties",
//	    InactiveValue:   "inactive",
//	    CustomSchema:    "urn:okta:onprem_app:1.0:user:custom",
//	}, directory.NewStore())
//	svc := directory.NewService(coord)
//
// Rows whose active column holds the inactive value, and rows missing a
// core or mandatory value, are left out silently. A custom value that does
// not parse as its declared type fails the whole refresh, and the previous
// snapshot keeps being served.
//
// # Queries
//
// Snapshots are immutable, so queries run without locks:
//
//   - [Evaluate] applies an [Equality] or [Or] filter.
//   - [Paginate] cuts a 1-based page out of the snapshot order.
//
// # Errors
//
// [ConfigError], [IngestionError] and [RefreshError] describe refresh
// failures. [MapError] turns any error into a coded [UserMessage].
package directory

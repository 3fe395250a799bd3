// Package sync contains the Sync Job bounded context.
// A SyncJob is a scheduled, repeating application of a DataMapping over an
// Integration, with a conflict-resolution policy for records that already
// exist at the target.
package sync

// Package history records periodic snapshots of every house.
//
// Two backends implement Repository: FileRepository appends one protojson line per
// record, MongoRepository inserts one document per record. The reporter reads the
// latest record of each house back.
package history

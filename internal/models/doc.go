// package models defines the data model for the account migration tool.
//
// Records mirror YouTube Data API resources for the duration of one
// migration run: playlists and playlist items fetched from the source
// account, plus the append-only status records produced while re-creating
// them on the destination account.
package models

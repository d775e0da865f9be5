// Package export turns a generated policy fragment into the forms a user
// takes away: plain text for the clipboard and the .txt download, and a
// standalone page that opens the print dialog.
package export

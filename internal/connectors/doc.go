// Package connectors provides implementations of the Connector interface.
// Each connector knows how to read raw documents from one kind of corpus
// location; the filesystem connector walks a local directory.
package connectors

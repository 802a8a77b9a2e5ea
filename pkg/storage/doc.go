// Package storage provides persistent storage functionality for the preacher bot.
// It uses BadgerDB as the embedded database and stores JSON encoded values under string keys.
package storage

// Package models defines the procurement data the client exchanges with the
// backend and keeps in memory: requests, users, roles and form drafts.
package models

// Package models defines the core domain models for Listkeep.
//
// # Models
//
//   - User: a registered account (email/username unique, bcrypt credential)
//   - UserRef: the display identity stub embedded in list payloads
//   - List: a shareable to-do list owned by one user
//   - ListItem: a single entry on a list, id stable across edits
//   - FriendRelationship: the single shared record connecting two users
//   - Session: a server-side login session backing a cookie token
//
// # Design Principles
//
// 1. **ID strings, not pointers**: relationships are expressed through ID
// strings to avoid circular references between models.
// 2. **Wire-shaped lists**: List and UserRef carry the JSON field names the
// frontend already speaks, including the historical "contributers" spelling.
// 3. **Server-owned metadata**: version, created/modified timestamps and
// modified-by are assigned by the storage layer, never trusted from clients.
package models
